// Package s3bucket stores post images in S3 (or an S3-compatible service)
// instead of the hosted backend's own buckets.
package s3bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

const defaultPresignExpiry = 15 * time.Minute

type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint switches to path-style addressing against an S3-compatible server.
	Endpoint      string
	PresignExpiry time.Duration
}

// Storage implements backend.Storage. The bucket id is the S3 bucket name and
// the file id is the object key.
type Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	expiry    time.Duration
	now       func() time.Time
}

var _ backend.Storage = (*Storage)(nil)

func New(ctx context.Context, cfg Config) (*Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("could not load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewFromClient(client, cfg.PresignExpiry), nil
}

func NewFromClient(client *s3.Client, presignExpiry time.Duration) *Storage {
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}

	return &Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		expiry:    presignExpiry,
		now:       time.Now,
	}
}

// CreateFile uploads the object. The body should be seekable so the request can be signed.
func (s *Storage) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (*backend.File, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucketID),
		Key:         aws.String(fileID),
		Body:        upload.Body,
		ContentType: aws.String(upload.ContentType),
		Metadata:    map[string]string{"filename": upload.Name},
	}
	if upload.Size > 0 {
		input.ContentLength = aws.Int64(upload.Size)
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return nil, classify(err)
	}

	return &backend.File{
		ID:           fileID,
		BucketID:     bucketID,
		Name:         upload.Name,
		MimeType:     upload.ContentType,
		SizeOriginal: upload.Size,
		CreatedAt:    s.now(),
	}, nil
}

func (s *Storage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return classify(err)
	}

	return nil
}

// FilePreviewURL returns a presigned GET url for the original object. S3 has
// no resizing, so the preview options are ignored.
func (s *Storage) FilePreviewURL(bucketID, fileID string, _ backend.PreviewOptions) (string, error) {
	if fileID == "" {
		return "", common.ValidationError{Errors: map[string]string{"file_id": "must be provided"}}
	}

	req, err := s.presigner.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(bucketID),
		Key:    aws.String(fileID),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("could not presign preview url: %w", err)
	}

	return req.URL, nil
}

func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %v", common.ErrRecordNotFound, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		}
	}

	return fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
}
