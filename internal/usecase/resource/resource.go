package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"time"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
	"github.com/andreyxaxa/Resource-Service/internal/infrastructure"
	"github.com/andreyxaxa/Resource-Service/internal/repo"
	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MaxAudioSize = 50 * 1024 * 1024

	MP3ContentType = "audio/mpeg"
)

type ResourceUseCase struct {
	storage    repo.ResourceStorageRepo
	resources  repo.ResourceRepo
	transactor repo.Transactor
	enqueuer   usecase.OutboxEnqueuer
	dispatcher usecase.OutboxDispatcher
	extractor  infrastructure.MetadataExtractor
	validate   *validator.Validate

	logger logger.Interface
}

func New(
	storage repo.ResourceStorageRepo,
	resources repo.ResourceRepo,
	transactor repo.Transactor,
	enqueuer usecase.OutboxEnqueuer,
	dispatcher usecase.OutboxDispatcher,
	extractor infrastructure.MetadataExtractor,
	l logger.Interface,
) *ResourceUseCase {
	return &ResourceUseCase{
		storage:    storage,
		resources:  resources,
		transactor: transactor,
		enqueuer:   enqueuer,
		dispatcher: dispatcher,
		extractor:  extractor,
		validate:   newValidator(),
		logger:     l,
	}
}

func (uc *ResourceUseCase) Upload(ctx context.Context, data []byte, contentType string) (int64, error) {
	// 1. проверяем формат и размер
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != MP3ContentType {
		ct := contentType
		if ct == "" {
			ct = "unknown"
		}

		return 0, errs.NewInputError(errs.ErrUnsupportedMediaType,
			fmt.Sprintf("Invalid file format: %s. Only MP3 files are allowed", ct))
	}

	if len(data) == 0 {
		return 0, errs.NewInputError(errs.ErrInvalidMp3, "Audio file is empty")
	}

	if len(data) > MaxAudioSize {
		return 0, errs.NewInputError(errs.ErrInvalidMp3, "Audio file is too large. Max allowed size is 50 MB")
	}

	// 2. достаем и валидируем метаданные
	md, err := uc.extractor.Extract(data)
	if err != nil {
		return 0, fmt.Errorf("ResourceUseCase - Upload - uc.extractor.Extract: %w", err)
	}

	err = uc.validateMetadata(md)
	if err != nil {
		return 0, fmt.Errorf("ResourceUseCase - Upload - uc.validateMetadata: %w", err)
	}

	// 3. загружаем в S3
	key := fmt.Sprintf("resources/%s", uuid.New())

	err = uc.storage.Upload(ctx, key, bytes.NewReader(data), MP3ContentType, int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("ResourceUseCase - Upload - uc.storage.Upload: %w", err)
	}

	// 4. в единой транзакции: ресурс + событие в outbox, доставка после коммита
	var id int64
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		id, err = uc.resources.Create(ctx, &entity.Resource{
			StorageKey:  key,
			ContentType: MP3ContentType,
			Size:        int64(len(data)),
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("ResourceUseCase - Upload - uc.resources.Create: %w", err)
		}

		if err = uc.enqueuer.EnqueueCreate(ctx, id, md); err != nil {
			return fmt.Errorf("ResourceUseCase - Upload - uc.enqueuer.EnqueueCreate: %w", err)
		}

		resourceID := id

		return uc.transactor.AfterCommit(ctx, func() {
			uc.dispatcher.DispatchCreate(resourceID, md)
		})
	})

	// если транзакция не прошла
	if err != nil {
		// удаляем созданный в S3 объект
		deleteErr := uc.storage.Delete(context.WithoutCancel(ctx), key)
		if deleteErr != nil {
			uc.logger.Error(deleteErr, "ResourceUseCase - Upload - uc.storage.Delete")
		}

		return 0, fmt.Errorf("ResourceUseCase - Upload - uc.transactor.WithinTransaction: %w", err)
	}

	uc.logger.Info("saved resource with id=%d", id)

	return id, nil
}

func (uc *ResourceUseCase) Get(ctx context.Context, rawID string) ([]byte, string, error) {
	id, err := ParsePositiveID(rawID)
	if err != nil {
		return nil, "", errs.NewInputError(errs.ErrInvalidResourceID,
			fmt.Sprintf("Invalid value '%s' for ID. Must be a positive integer", rawID))
	}

	notFound := errs.NewInputError(errs.ErrRecordNotFound, fmt.Sprintf("Resource with ID=%d not found", id))

	res, err := uc.resources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, "", notFound
		}

		return nil, "", fmt.Errorf("ResourceUseCase - Get - uc.resources.GetByID: %w", err)
	}

	data, err := uc.storage.DownloadBytes(ctx, res.StorageKey)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, "", notFound
		}

		return nil, "", fmt.Errorf("ResourceUseCase - Get - uc.storage.DownloadBytes: %w", err)
	}

	return data, res.ContentType, nil
}

// Delete removes the existing resources among rawIDs and returns their ids.
func (uc *ResourceUseCase) Delete(ctx context.Context, rawIDs string) ([]int64, error) {
	ids, err := ParsePositiveIDs(rawIDs)
	if err != nil {
		return nil, fmt.Errorf("ResourceUseCase - Delete - ParsePositiveIDs: %w", err)
	}
	if len(ids) == 0 {
		return []int64{}, nil
	}

	var deleted []*entity.Resource

	// 1. удаляем строки и пишем DELETE события в одной транзакции
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		deleted, err = uc.resources.DeleteReturning(ctx, ids)
		if err != nil {
			return fmt.Errorf("ResourceUseCase - Delete - uc.resources.DeleteReturning: %w", err)
		}
		if len(deleted) == 0 {
			return nil
		}

		deletedIDs := resourceIDs(deleted)

		if err = uc.enqueuer.EnqueueDelete(ctx, deletedIDs); err != nil {
			return fmt.Errorf("ResourceUseCase - Delete - uc.enqueuer.EnqueueDelete: %w", err)
		}

		return uc.transactor.AfterCommit(ctx, func() {
			uc.dispatcher.DispatchDeletes(deletedIDs)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ResourceUseCase - Delete - uc.transactor.WithinTransaction: %w", err)
	}

	// 2. удаляем из S3, ошибки не критичны
	for _, res := range deleted {
		err = uc.storage.Delete(ctx, res.StorageKey)
		if err != nil {
			uc.logger.Warn("failed to delete key=%s, error=%v", res.StorageKey, err)
		}
	}

	if len(deleted) > 0 {
		uc.logger.Info("deleted %d resources", len(deleted))
	}

	return resourceIDs(deleted), nil
}

func resourceIDs(resources []*entity.Resource) []int64 {
	ids := make([]int64, 0, len(resources))
	for _, res := range resources {
		ids = append(ids, res.ID)
	}

	return ids
}
