package response

type Error struct {
	ErrorMessage string            `json:"errorMessage" example:"Resource with ID=1 not found"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorCode    string            `json:"errorCode" example:"404"`
}

type UploadResource struct {
	ID int64 `json:"id" example:"1"`
}

type DeleteResources struct {
	IDs []int64 `json:"ids"`
}
