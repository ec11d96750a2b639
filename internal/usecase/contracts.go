package usecase

import (
	"context"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
)

type (
	ResourceUseCase interface {
		Upload(ctx context.Context, data []byte, contentType string) (int64, error)
		Get(ctx context.Context, rawID string) ([]byte, string, error)
		Delete(ctx context.Context, rawIDs string) ([]int64, error)
	}

	// OutboxEnqueuer records delivery obligations on the caller's transaction.
	OutboxEnqueuer interface {
		EnqueueCreate(ctx context.Context, entityID int64, md *entity.SongMetadata) error
		EnqueueDelete(ctx context.Context, entityIDs []int64) error
	}

	OutboxPublisher interface {
		ProcessCreateEvent(ctx context.Context, entityID int64, md *entity.SongMetadata) error
		ProcessDeleteEvents(ctx context.Context, entityIDs []int64) error
		ProcessCreateBatchOnce(ctx context.Context) error
		ProcessDeleteBatchOnce(ctx context.Context) error
	}

	// OutboxDispatcher hands a committed obligation to the immediate delivery path without blocking.
	OutboxDispatcher interface {
		DispatchCreate(entityID int64, md *entity.SongMetadata)
		DispatchDeletes(entityIDs []int64)
	}
)
