package entity

import (
	"time"
)

type OutboxEvent struct {
	ID        int64     `json:"id"`
	Type      EventType `json:"type"`
	EntityID  int64     `json:"entity_id"`
	Payload   []byte    `json:"payload"`
	Attempts  int       `json:"attempts"`
	LastError *string   `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Exhausted reports whether the event reached the attempt ceiling and is no longer claimed.
func (e *OutboxEvent) Exhausted(maxAttempts int) bool {
	return e.Attempts >= maxAttempts
}
