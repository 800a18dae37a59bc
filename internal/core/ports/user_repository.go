package ports

import (
	"context"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// UserRepository persists user accounts. Email is unique across all users.
type UserRepository interface {
	// Create inserts a new user and returns it with its ID set.
	// Returns domain.ErrEmailExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Update applies patch and returns the updated user.
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}
