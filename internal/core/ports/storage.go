package ports

import (
	"context"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// UploadResult describes a stored object.
type UploadResult struct {
	URL          string `json:"url,omitempty"`
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	Format       string `json:"format,omitempty"`
	ResourceType string `json:"resource_type,omitempty"`
	Bytes        int    `json:"bytes"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Folder       string `json:"folder,omitempty"`
}

// UploadSignature authorizes a client to upload directly to the object store.
type UploadSignature struct {
	APIKey    string `json:"apiKey"`
	CloudName string `json:"cloudName"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
	Folder    string `json:"folder,omitempty"`
}

// ObjectStore stores binary content and returns durable URLs.
type ObjectStore interface {
	// Ready returns domain.ErrStorageNotReady when credentials are missing.
	// It performs no I/O.
	Ready() error
	Upload(ctx context.Context, file domain.FilePayload, folder string) (*UploadResult, error)
}

// UploadSigner issues client-side upload authorizations.
type UploadSigner interface {
	SignUpload(folder string) (*UploadSignature, error)
}

// UploadService exposes the upload endpoints' use cases.
type UploadService interface {
	Upload(ctx context.Context, file domain.FilePayload, folder string) (*UploadResult, error)
	UploadUserDocument(ctx context.Context, userID, docType string, file domain.FilePayload, folder string) (string, *domain.User, error)
	Sign(folder string) (*UploadSignature, error)
}
