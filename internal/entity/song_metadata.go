package entity

// SongMetadata is what the catalog stores for a resource.
type SongMetadata struct {
	Name     string `json:"name" validate:"required,max=100"`
	Artist   string `json:"artist" validate:"required,max=100"`
	Album    string `json:"album" validate:"required,max=100"`
	Year     string `json:"year" validate:"required,year"`
	Duration string `json:"duration" validate:"required,duration"`
}
