package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// uploadTimeout bounds a single object store upload.
const uploadTimeout = 60 * time.Second

// CloudinaryStore uploads files to Cloudinary.
type CloudinaryStore struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

// NewCloudinaryStore returns a store that reports domain.ErrStorageNotReady
// on every call when creds are incomplete.
func NewCloudinaryStore(creds Credentials) (*CloudinaryStore, error) {
	if !creds.complete() {
		return &CloudinaryStore{}, nil
	}
	cld, err := cloudinary.NewFromParams(creds.CloudName, creds.APIKey, creds.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, timeout: uploadTimeout}, nil
}

func (s *CloudinaryStore) Ready() error {
	if s.cld == nil {
		return domain.ErrStorageNotReady
	}
	return nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file domain.FilePayload, folder string) (*ports.UploadResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, domain.NewError(domain.ErrUpstream, "%s", err.Error())
	}
	if resp.Error.Message != "" {
		return nil, domain.NewError(domain.ErrUpstream, "%s", resp.Error.Message)
	}

	return &ports.UploadResult{
		URL:          resp.URL,
		SecureURL:    resp.SecureURL,
		PublicID:     resp.PublicID,
		Format:       resp.Format,
		ResourceType: resp.ResourceType,
		Bytes:        resp.Bytes,
		Width:        resp.Width,
		Height:       resp.Height,
		Folder:       folder,
	}, nil
}
