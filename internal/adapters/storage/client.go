package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the default lifetime of document download links.
const PresignedURLTTL = 24 * time.Hour

// MinIOService stores rendered policy documents in an S3-compatible bucket.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
	linkTTL     time.Duration
}

// NewMinIOService connects to the configured endpoint. It does not touch
// any bucket; call EnsureBucketExists at startup.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}

	return &MinIOService{
		client:      client,
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		linkTTL:     PresignedURLTTL,
	}, nil
}

// EnsureBucketExists creates bucket unless it exists. Losing a creation race
// against another instance is not an error.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil && !bucketAlreadyOwned(err) {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// UploadFile stores a rendered document under folder and returns its key.
func (s *MinIOService) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if err := s.ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := s.ValidateFileSize(size); err != nil {
		return "", err
	}

	fileKey := buildFileKey(folder, fileName)
	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: contentDisposition(contentType, fileName),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// GenerateDownloadURL presigns a GET for fileKey valid for the link TTL.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(s.linkTTL)

	params := url.Values{}
	params.Set("response-content-disposition", `attachment; filename="`+path.Base(fileKey)+`"`)

	link, err := s.client.PresignedGetObject(ctx, bucket, fileKey, s.linkTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", fileKey, err)
	}

	return &PresignedURL{URL: link.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

func bucketAlreadyOwned(err error) bool {
	return minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou"
}

// contentDisposition lets browsers show PDFs inline and download the
// HTML print view.
func contentDisposition(contentType, fileName string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "application/pdf") {
		return `inline; filename="` + fileName + `"`
	}
	return `attachment; filename="` + fileName + `"`
}

// buildFileKey appends a short random suffix so re-rendered summaries
// never overwrite each other.
func buildFileKey(folder, fileName string) string {
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return path.Join(folder, base+"_"+uuid.NewString()[:8]+ext)
}
