package ports

import (
	"context"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// ProfileUpdateInput carries the fields a user may change on their own account.
type ProfileUpdateInput struct {
	FullName       *string
	Phone          *string
	CompanyProfile map[string]any
	Documents      []DocumentEntry
}

// UserService manages existing accounts.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileUpdateInput) (*domain.User, error)
	SetRole(ctx context.Context, id, role string) (*domain.User, error)
	VerifyEmail(ctx context.Context, id string) (*domain.User, error)
}
