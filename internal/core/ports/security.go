package ports

import (
	"context"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify reports whether plain matches hash. It never fails loudly.
	Verify(plain, hash string) bool
}

// TokenIssuer signs and validates bearer tokens.
type TokenIssuer interface {
	Issue(claims domain.Claims) (string, error)
	Verify(token string) (*domain.Claims, error)
}

// AttemptLimiter counts failed login attempts per key.
type AttemptLimiter interface {
	Locked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
