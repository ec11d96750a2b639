package repo

import (
	"context"
	"io"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
)

type (
	// ResourceStorageRepo holds resource bytes.
	ResourceStorageRepo interface {
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
	}

	ResourceRepo interface {
		Create(ctx context.Context, resource *entity.Resource) (int64, error)
		GetByID(ctx context.Context, id int64) (*entity.Resource, error)
		DeleteReturning(ctx context.Context, ids []int64) ([]*entity.Resource, error)
	}

	// OutboxRepo is the event ledger. Every method runs on the transaction carried by ctx, if any.
	OutboxRepo interface {
		UpsertCreate(ctx context.Context, entityID int64, payload []byte) error
		InsertDeletes(ctx context.Context, entityIDs []int64) error
		Claim(ctx context.Context, eventType entity.EventType, entityIDs []int64, maxAttempts int) ([]int64, error)
		ClaimBatch(ctx context.Context, eventType entity.EventType, maxAttempts, limit int) ([]*entity.OutboxEvent, error)
		DeleteEvents(ctx context.Context, eventType entity.EventType, entityIDs []int64) (int64, error)
		MarkFailed(ctx context.Context, eventType entity.EventType, entityIDs []int64, lastError string) (int64, error)
		MarkExhausted(ctx context.Context, eventType entity.EventType, entityIDs []int64, lastError string, maxAttempts int) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
		InTransaction(ctx context.Context) bool
		AfterCommit(ctx context.Context, fn func()) error
	}
)
