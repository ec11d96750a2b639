package entity

type EventType string

const (
	CreateMetadata EventType = "CREATE_METADATA"
	DeleteMetadata EventType = "DELETE_METADATA"
)

func (t EventType) String() string {
	return string(t)
}
