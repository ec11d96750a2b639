package outbox

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/internal/infrastructure"
	"github.com/andreyxaxa/Resource-Service/internal/repo"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/andreyxaxa/Resource-Service/internal/usecase/outbox"

type OutboxUseCase struct {
	repo       repo.OutboxRepo
	transactor repo.Transactor
	catalog    infrastructure.CatalogClient

	maxAttempts     int
	createBatchSize int
	deleteBatchSize int

	tracer trace.Tracer
	logger logger.Interface
}

func New(
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	catalog infrastructure.CatalogClient,
	l logger.Interface,
	maxAttempts int,
	createBatchSize int,
	deleteBatchSize int,
) *OutboxUseCase {
	return &OutboxUseCase{
		repo:            outboxRepo,
		transactor:      transactor,
		catalog:         catalog,
		maxAttempts:     maxAttempts,
		createBatchSize: createBatchSize,
		deleteBatchSize: deleteBatchSize,
		tracer:          otel.Tracer(tracerName),
		logger:          l,
	}
}

// EnqueueCreate must run inside the caller's transaction.
func (uc *OutboxUseCase) EnqueueCreate(ctx context.Context, entityID int64, md *entity.SongMetadata) error {
	if !uc.transactor.InTransaction(ctx) {
		return fmt.Errorf("OutboxUseCase - EnqueueCreate: %w", errs.ErrNoTransaction)
	}

	payload, err := buildCreatePayload(entityID, md)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - EnqueueCreate - buildCreatePayload: %w", err)
	}

	err = uc.repo.UpsertCreate(ctx, entityID, payload)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - EnqueueCreate - uc.repo.UpsertCreate: %w", err)
	}

	return nil
}

// EnqueueDelete must run inside the caller's transaction.
func (uc *OutboxUseCase) EnqueueDelete(ctx context.Context, entityIDs []int64) error {
	if !uc.transactor.InTransaction(ctx) {
		return fmt.Errorf("OutboxUseCase - EnqueueDelete: %w", errs.ErrNoTransaction)
	}

	err := uc.repo.InsertDeletes(ctx, dedupe(entityIDs))
	if err != nil {
		return fmt.Errorf("OutboxUseCase - EnqueueDelete - uc.repo.InsertDeletes: %w", err)
	}

	return nil
}

func (uc *OutboxUseCase) ProcessCreateEvent(ctx context.Context, entityID int64, md *entity.SongMetadata) error {
	ctx, span := uc.tracer.Start(ctx, "outbox.process_create_event",
		trace.WithAttributes(attribute.Int64("outbox.entity_id", entityID)))
	defer span.End()

	payload, err := buildCreatePayload(entityID, md)
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("OutboxUseCase - ProcessCreateEvent - buildCreatePayload: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. захватываем строку, если ее уже держит другой диспетчер - выходим
		claimed, err := uc.repo.Claim(ctx, entity.CreateMetadata, []int64{entityID}, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("uc.repo.Claim: %w", err)
		}
		if len(claimed) == 0 {
			uc.logger.Debug("immediate CREATE skipped, entity_id=%d is not claimable", entityID)

			return nil
		}

		// 2. доставляем и фиксируем результат под тем же локом
		deliveryErr := uc.catalog.CreateSong(ctx, payload)
		if deliveryErr != nil && IsConflict(deliveryErr) {
			uc.logger.Info("immediate CREATE got 409 for entity_id=%d, treated as delivered", entityID)
			deliveryErr = nil
		}

		return uc.resolve(ctx, span, "immediate", entity.CreateMetadata, claimed, deliveryErr)
	})
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("OutboxUseCase - ProcessCreateEvent - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *OutboxUseCase) ProcessDeleteEvents(ctx context.Context, entityIDs []int64) error {
	ids := dedupe(entityIDs)
	if len(ids) == 0 {
		return nil
	}

	ctx, span := uc.tracer.Start(ctx, "outbox.process_delete_events",
		trace.WithAttributes(attribute.Int("outbox.requested", len(ids))))
	defer span.End()

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		claimed, err := uc.repo.Claim(ctx, entity.DeleteMetadata, ids, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("uc.repo.Claim: %w", err)
		}
		if len(claimed) == 0 {
			uc.logger.Debug("immediate DELETE skipped, none of %d ids is claimable", len(ids))

			return nil
		}

		deliveryErr := uc.catalog.DeleteSongs(ctx, claimed)

		return uc.resolve(ctx, span, "immediate", entity.DeleteMetadata, claimed, deliveryErr)
	})
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("OutboxUseCase - ProcessDeleteEvents - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *OutboxUseCase) ProcessCreateBatchOnce(ctx context.Context) error {
	ctx, span := uc.tracer.Start(ctx, "outbox.process_create_batch")
	defer span.End()

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. берем самые старые не исчерпанные события
		events, err := uc.repo.ClaimBatch(ctx, entity.CreateMetadata, uc.maxAttempts, uc.createBatchSize)
		if err != nil {
			return fmt.Errorf("uc.repo.ClaimBatch: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		span.SetAttributes(attribute.Int("outbox.claimed", len(events)))
		uc.logger.Info("processing CREATE batch: %d events", len(events))

		// 2. собираем тело bulk запроса, битые payload сразу в dead letter
		songs, ids, malformed := splitBulkSongs(events)
		if len(malformed) > 0 {
			if err = uc.deadLetter(ctx, malformed); err != nil {
				return err
			}
		}
		if len(songs) == 0 {
			return nil
		}

		// 3. один вызов на весь батч
		deliveryErr := uc.catalog.CreateSongsBulk(ctx, songs)

		return uc.resolve(ctx, span, "batch", entity.CreateMetadata, ids, deliveryErr)
	})
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("OutboxUseCase - ProcessCreateBatchOnce - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *OutboxUseCase) ProcessDeleteBatchOnce(ctx context.Context) error {
	ctx, span := uc.tracer.Start(ctx, "outbox.process_delete_batch")
	defer span.End()

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		events, err := uc.repo.ClaimBatch(ctx, entity.DeleteMetadata, uc.maxAttempts, uc.deleteBatchSize)
		if err != nil {
			return fmt.Errorf("uc.repo.ClaimBatch: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		span.SetAttributes(attribute.Int("outbox.claimed", len(events)))
		uc.logger.Info("processing DELETE batch: %d events", len(events))

		ids := entityIDs(events)
		deliveryErr := uc.catalog.DeleteSongsBulk(ctx, ids)

		return uc.resolve(ctx, span, "batch", entity.DeleteMetadata, ids, deliveryErr)
	})
	if err != nil {
		recordError(span, err)

		return fmt.Errorf("OutboxUseCase - ProcessDeleteBatchOnce - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

// resolve removes the rows on success, otherwise charges one attempt to every row of the set.
// A delivery failure is not returned: it is recorded on the ledger and the transaction commits.
func (uc *OutboxUseCase) resolve(
	ctx context.Context,
	span trace.Span,
	path string,
	eventType entity.EventType,
	ids []int64,
	deliveryErr error,
) error {
	if deliveryErr == nil {
		removed, err := uc.repo.DeleteEvents(ctx, eventType, ids)
		if err != nil {
			return fmt.Errorf("uc.repo.DeleteEvents: %w", err)
		}

		span.SetAttributes(attribute.Int64("outbox.delivered", removed))
		uc.logger.Info("%s %s delivered for %d entities, removed %d outbox events", path, eventType, len(ids), removed)

		return nil
	}

	detailedError := DescribeFailure(deliveryErr)

	updated, err := uc.repo.MarkFailed(ctx, eventType, ids, detailedError)
	if err != nil {
		return fmt.Errorf("uc.repo.MarkFailed: %w", err)
	}

	span.RecordError(deliveryErr)
	span.SetStatus(codes.Error, detailedError)
	span.SetAttributes(attribute.Int64("outbox.failed", updated))
	uc.logger.Warn("%s %s failed for %d entities, marked %d as failed. Error: %s",
		path, eventType, len(ids), updated, detailedError)

	return nil
}

func (uc *OutboxUseCase) deadLetter(ctx context.Context, events []*entity.OutboxEvent) error {
	for _, event := range events {
		msg := truncate(fmt.Sprintf("Invalid outbox payload for event ID: %d", event.ID))

		_, err := uc.repo.MarkExhausted(ctx, event.Type, []int64{event.EntityID}, msg, uc.maxAttempts)
		if err != nil {
			return fmt.Errorf("uc.repo.MarkExhausted: %w", err)
		}

		uc.logger.Error(fmt.Errorf("%w: event_id=%d entity_id=%d", errs.ErrPayloadSerialization, event.ID, event.EntityID),
			"OutboxUseCase - deadLetter")
	}

	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
