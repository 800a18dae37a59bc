package ports

import (
	"context"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// DocumentEntry is one document value as received from a client, before
// alias resolution. Exactly one of URL or File carries the content: a non-nil
// File means the bytes still have to be uploaded.
type DocumentEntry struct {
	// Key is the canonical type for listed entries, or the field name
	// (localized or canonical) for keyed ones.
	Key      string
	URL      string
	Filename string
	Required bool
	File     *domain.FilePayload
	// Listed marks entries that came from an array of {type, url} objects.
	Listed bool
}

// RegisterInput is the normalized registration request.
type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Phone          string
	Role           string
	CompanyProfile map[string]any
	Documents      []DocumentEntry
	// UploadFolder overrides the default folder for uploaded document files.
	UploadFolder string
}

// AuthService registers and authenticates users.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
