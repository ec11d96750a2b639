package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/pkg/postgres"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	resourcesTable = "resources"

	// Columns
	idColumn          = "id"
	storageKeyColumn  = "storage_key"
	contentTypeColumn = "content_type"
	sizeColumn        = "size"
	createdAtColumn   = "created_at"
)

type ResourceRepo struct {
	*postgres.Postgres
}

func NewResourceRepo(pg *postgres.Postgres) *ResourceRepo {
	return &ResourceRepo{pg}
}

func (r *ResourceRepo) Create(ctx context.Context, resource *entity.Resource) (int64, error) {
	sql, args, err := r.Builder.
		Insert(resourcesTable).
		Columns(
			storageKeyColumn,
			contentTypeColumn,
			sizeColumn,
			createdAtColumn,
		).
		Values(
			resource.StorageKey,
			resource.ContentType,
			resource.Size,
			resource.CreatedAt,
		).
		Suffix("RETURNING " + idColumn).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ResourceRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	var id int64
	err = executor.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ResourceRepo - Create - executor.QueryRow: %w", err)
	}

	return id, nil
}

func (r *ResourceRepo) GetByID(ctx context.Context, id int64) (*entity.Resource, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			storageKeyColumn,
			contentTypeColumn,
			sizeColumn,
			createdAtColumn,
		).
		From(resourcesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ResourceRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var resource entity.Resource
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&resource.ID,
		&resource.StorageKey,
		&resource.ContentType,
		&resource.Size,
		&resource.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ResourceRepo - GetByID: %w", errs.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("ResourceRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &resource, nil
}

// DeleteReturning removes the resources that exist among ids and returns what was removed.
func (r *ResourceRepo) DeleteReturning(ctx context.Context, ids []int64) ([]*entity.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql, args, err := r.Builder.
		Delete(resourcesTable).
		Where(squirrel.Eq{idColumn: ids}).
		Suffix(fmt.Sprintf("RETURNING %s, %s, %s, %s, %s",
			idColumn, storageKeyColumn, contentTypeColumn, sizeColumn, createdAtColumn)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ResourceRepo - DeleteReturning - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ResourceRepo - DeleteReturning - executor.Query: %w", err)
	}
	defer rows.Close()

	deleted := make([]*entity.Resource, 0, len(ids))
	for rows.Next() {
		var resource entity.Resource
		err = rows.Scan(
			&resource.ID,
			&resource.StorageKey,
			&resource.ContentType,
			&resource.Size,
			&resource.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ResourceRepo - DeleteReturning - rows.Scan: %w", err)
		}
		deleted = append(deleted, &resource)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ResourceRepo - DeleteReturning - rows.Err: %w", err)
	}

	return deleted, nil
}
