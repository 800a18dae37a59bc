package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// S3Store uploads files to a public-read S3 bucket.
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
	region   string
	timeout  time.Duration
}

// NewS3Store loads AWS credentials from the default chain. An empty bucket
// yields a store that is never ready.
func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	if bucket == "" {
		return &S3Store{}, nil
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{uploader: manager.NewUploader(client), bucket: bucket, region: region, timeout: uploadTimeout}, nil
}

func (s *S3Store) Ready() error {
	if s.uploader == nil {
		return domain.ErrStorageNotReady
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, file domain.FilePayload, folder string) (*ports.UploadResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}
	key := objectKey(folder, file.Filename, contentType)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, domain.NewError(domain.ErrUpstream, "s3 upload failed: %s", err.Error())
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escapeKey(key))
	return &ports.UploadResult{
		URL:          publicURL,
		SecureURL:    publicURL,
		PublicID:     key,
		Format:       strings.TrimPrefix(path.Ext(key), "."),
		ResourceType: strings.SplitN(contentType, "/", 2)[0],
		Bytes:        len(file.Data),
		Folder:       folder,
	}, nil
}

// objectKey is <folder>/<uuid><ext>. The extension comes from the filename,
// falling back to one registered for contentType.
func objectKey(folder, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	name := uuid.NewString() + ext
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
