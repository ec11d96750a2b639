package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
)

type (
	// CatalogClient talks to the song catalog. Failures are *entity.DeliveryError.
	CatalogClient interface {
		CreateSong(ctx context.Context, payload json.RawMessage) error
		CreateSongsBulk(ctx context.Context, songs []json.RawMessage) error
		DeleteSongs(ctx context.Context, ids []int64) error
		DeleteSongsBulk(ctx context.Context, ids []int64) error
	}

	MetadataExtractor interface {
		Extract(data []byte) (*entity.SongMetadata, error)
	}
)
