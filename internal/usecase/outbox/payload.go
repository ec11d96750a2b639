package outbox

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
)

// createPayload is the catalog create body: song metadata plus the resource id.
type createPayload struct {
	ID int64 `json:"id"`
	entity.SongMetadata
}

func buildCreatePayload(entityID int64, md *entity.SongMetadata) (json.RawMessage, error) {
	if md == nil {
		return nil, fmt.Errorf("buildCreatePayload - nil metadata: %w", errs.ErrPayloadSerialization)
	}

	b, err := json.Marshal(createPayload{ID: entityID, SongMetadata: *md})
	if err != nil {
		return nil, fmt.Errorf("buildCreatePayload - json.Marshal: %w: %w", errs.ErrPayloadSerialization, err)
	}

	return b, nil
}

// splitBulkSongs keeps the payloads that are JSON objects and reports the events that are not.
func splitBulkSongs(events []*entity.OutboxEvent) (songs []json.RawMessage, delivered []int64, malformed []*entity.OutboxEvent) {
	songs = make([]json.RawMessage, 0, len(events))
	delivered = make([]int64, 0, len(events))

	for _, event := range events {
		if !isJSONObject(event.Payload) {
			malformed = append(malformed, event)

			continue
		}

		songs = append(songs, json.RawMessage(event.Payload))
		delivered = append(delivered, event.EntityID)
	}

	return songs, delivered, malformed
}

func isJSONObject(b []byte) bool {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}

	var obj map[string]json.RawMessage

	return json.Unmarshal(trimmed, &obj) == nil
}

func entityIDs(events []*entity.OutboxEvent) []int64 {
	ids := make([]int64, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.EntityID)
	}

	return ids
}
