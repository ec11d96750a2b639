package persistent

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/postgres"
)

const (
	// Table
	outboxTable = "outbox_events"

	// Columns
	outboxIDColumn        = "id"
	outboxTypeColumn      = "type"
	outboxEntityIDColumn  = "entity_id"
	outboxPayloadColumn   = "payload"
	outboxAttemptsColumn  = "attempts"
	outboxLastErrorColumn = "last_error"
	outboxCreatedAtColumn = "created_at"

	deletePayload = "{}"

	skipLocked = "FOR UPDATE SKIP LOCKED"
)

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

// UpsertCreate records a CREATE obligation. An existing row for the entity gets the new payload
// and its attempt state reset.
func (r *OutboxRepo) UpsertCreate(ctx context.Context, entityID int64, payload []byte) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxTypeColumn,
			outboxEntityIDColumn,
			outboxPayloadColumn,
			outboxAttemptsColumn,
		).
		Values(
			entity.CreateMetadata,
			entityID,
			string(payload),
			0,
		).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = 0, %s = NULL",
			outboxTypeColumn, outboxEntityIDColumn,
			outboxPayloadColumn, outboxPayloadColumn,
			outboxAttemptsColumn,
			outboxLastErrorColumn,
		)).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - UpsertCreate - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - UpsertCreate - executor.Exec: %w", err)
	}

	return nil
}

// InsertDeletes records DELETE obligations in one statement. Already recorded ones are left as is.
func (r *OutboxRepo) InsertDeletes(ctx context.Context, entityIDs []int64) error {
	if len(entityIDs) == 0 {
		return nil
	}

	builder := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxTypeColumn,
			outboxEntityIDColumn,
			outboxPayloadColumn,
			outboxAttemptsColumn,
		)

	for _, id := range entityIDs {
		builder = builder.Values(entity.DeleteMetadata, id, deletePayload, 0)
	}

	sql, args, err := builder.
		Suffix(fmt.Sprintf("ON CONFLICT (%s, %s) DO NOTHING", outboxTypeColumn, outboxEntityIDColumn)).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - InsertDeletes - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - InsertDeletes - executor.Exec: %w", err)
	}

	return nil
}

// Claim locks the not yet exhausted rows of the given entities, skipping rows locked elsewhere,
// and returns the entity ids it got. The locks live until the surrounding transaction ends.
func (r *OutboxRepo) Claim(
	ctx context.Context,
	eventType entity.EventType,
	entityIDs []int64,
	maxAttempts int,
) ([]int64, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.Builder.
		Select(outboxEntityIDColumn).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxTypeColumn: eventType},
			squirrel.Eq{outboxEntityIDColumn: entityIDs},
			squirrel.Lt{outboxAttemptsColumn: maxAttempts},
		}).
		Suffix(skipLocked).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - Claim - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - Claim - executor.Query: %w", err)
	}
	defer rows.Close()

	claimed := make([]int64, 0, len(entityIDs))
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("OutboxRepo - Claim - rows.Scan: %w", err)
		}
		claimed = append(claimed, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - Claim - rows.Err: %w", err)
	}

	return claimed, nil
}

// ClaimBatch locks up to limit of the oldest not yet exhausted rows of one type.
func (r *OutboxRepo) ClaimBatch(
	ctx context.Context,
	eventType entity.EventType,
	maxAttempts, limit int,
) ([]*entity.OutboxEvent, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxTypeColumn,
			outboxEntityIDColumn,
			outboxPayloadColumn,
			outboxAttemptsColumn,
			outboxLastErrorColumn,
			outboxCreatedAtColumn,
		).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxTypeColumn: eventType},
			squirrel.Lt{outboxAttemptsColumn: maxAttempts},
		}).
		OrderBy(outboxCreatedAtColumn+" ASC", outboxIDColumn+" ASC").
		Limit(uint64(limit)). //nolint:gosec // limit comes from validated config
		Suffix(skipLocked).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimBatch - executor.Query: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0, limit)
	for rows.Next() {
		var event entity.OutboxEvent
		err = rows.Scan(
			&event.ID,
			&event.Type,
			&event.EntityID,
			&event.Payload,
			&event.Attempts,
			&event.LastError,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - ClaimBatch - rows.Scan: %w", err)
		}
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimBatch - rows.Err: %w", err)
	}

	return events, nil
}

func (r *OutboxRepo) DeleteEvents(ctx context.Context, eventType entity.EventType, entityIDs []int64) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}

	sql, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxTypeColumn: eventType},
			squirrel.Eq{outboxEntityIDColumn: entityIDs},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteEvents - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteEvents - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *OutboxRepo) MarkFailed(
	ctx context.Context,
	eventType entity.EventType,
	entityIDs []int64,
	lastError string,
) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxAttemptsColumn, squirrel.Expr(outboxAttemptsColumn+" + 1")).
		Set(outboxLastErrorColumn, lastError).
		Where(squirrel.And{
			squirrel.Eq{outboxTypeColumn: eventType},
			squirrel.Eq{outboxEntityIDColumn: entityIDs},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MarkExhausted moves rows straight to the attempt ceiling so they are never claimed again.
func (r *OutboxRepo) MarkExhausted(
	ctx context.Context,
	eventType entity.EventType,
	entityIDs []int64,
	lastError string,
	maxAttempts int,
) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxAttemptsColumn, maxAttempts).
		Set(outboxLastErrorColumn, lastError).
		Where(squirrel.And{
			squirrel.Eq{outboxTypeColumn: eventType},
			squirrel.Eq{outboxEntityIDColumn: entityIDs},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkExhausted - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkExhausted - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
