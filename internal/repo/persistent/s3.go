package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andreyxaxa/Resource-Service/pkg/s3client"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type ResourceStorageRepo struct {
	*s3client.S3Client
	bucket string
}

func NewResourceStorageRepo(s3c *s3client.S3Client, bucket string) *ResourceStorageRepo {
	return &ResourceStorageRepo{s3c, bucket}
}

func (r *ResourceStorageRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("ResourceStorageRepo - Upload - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ResourceStorageRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("ResourceStorageRepo - DownloadBytes: %w", errs.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("ResourceStorageRepo - DownloadBytes - r.Client.GetObject: %w", err)
	}
	defer result.Body.Close()

	b, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("ResourceStorageRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *ResourceStorageRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ResourceStorageRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}
