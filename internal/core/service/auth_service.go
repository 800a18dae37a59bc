package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

const (
	defaultUploadFolder = "users"
	// bcrypt only reads this many bytes of a password.
	maxPasswordBytes = 72
)

// AuthOptions holds the process-wide policy knobs for AuthService.
type AuthOptions struct {
	// AllowAdminSignup permits role=ADMIN on public registration.
	AllowAdminSignup bool
	// UploadFolder is where document files sent with a registration are stored.
	UploadFolder string
	// Limiter throttles repeated failed logins. Optional.
	Limiter ports.AttemptLimiter
}

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	store     ports.ObjectStore
	opts      AuthOptions
	dummyHash string
	log       zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	store ports.ObjectStore,
	opts AuthOptions,
	log zerolog.Logger,
) *AuthService {
	if opts.UploadFolder == "" {
		opts.UploadFolder = defaultUploadFolder
	}
	// Compared against when the email is unknown so both failure paths pay
	// for one bcrypt comparison.
	dummy, err := hasher.Hash("rupagen-timing-equalizer")
	if err != nil {
		log.Error().Err(err).Msg("failed to hash timing equalizer, unknown-email logins will answer faster")
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		store:     store,
		opts:      opts,
		dummyHash: dummy,
		log:       log,
	}
}

// Register validates, normalizes and persists a new account. Gates run in
// order and the first failure is returned.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	entries, err := s.uploadDocumentFiles(ctx, in.Documents, in.UploadFolder)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Validation("email and password required")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.Validation("password must be at most %d bytes", maxPasswordBytes)
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, domain.Validation("role must be one of %s, %s, %s",
			domain.RoleCulturalPartner, domain.RoleLicenseBuyer, domain.RoleAdmin)
	}

	switch _, err := s.repo.FindByEmail(ctx, email); {
	case err == nil:
		return nil, domain.ErrEmailExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	if role == domain.RoleAdmin && !s.opts.AllowAdminSignup {
		s.log.Warn().Str("email", email).Msg("public admin signup rejected")
		return nil, domain.ErrAdminSignup
	}

	profile := domain.CompanyProfileFromMap(in.CompanyProfile)

	docs, err := NormalizeDocuments(role, entries)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:              email,
		PasswordHash:       hash,
		FullName:           strings.TrimSpace(in.FullName),
		Phone:              strings.TrimSpace(in.Phone),
		Role:               role,
		CompanyProfile:     profile,
		VerificationStatus: domain.VerificationPending,
		Documents:          domain.FromDocuments(docs),
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	s.log.Info().
		Str("user_id", created.ID).
		Str("role", string(created.Role)).
		Int("documents", len(docs)).
		Msg("user registered")

	return created, nil
}

// Login authenticates by email and password and issues a bearer token.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, domain.Validation("email and password required")
	}

	if s.opts.Limiter != nil {
		locked, err := s.opts.Limiter.Locked(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if locked {
			return "", nil, domain.ErrLoginLocked
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, fmt.Errorf("login: lookup email: %w", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.recordFailure(ctx, email)
		return "", nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email)
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login attempts")
		}
	}

	token, err := s.tokens.Issue(domain.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return "", nil, fmt.Errorf("login: issue token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.opts.Limiter == nil {
		return
	}
	if err := s.opts.Limiter.Fail(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login attempt")
	}
}

// uploadDocumentFiles turns file entries into URL entries by storing their
// bytes. Files sent under unknown document keys are dropped without upload.
func (s *AuthService) uploadDocumentFiles(ctx context.Context, entries []ports.DocumentEntry, folder string) ([]ports.DocumentEntry, error) {
	if folder == "" {
		folder = s.opts.UploadFolder
	}

	out := make([]ports.DocumentEntry, 0, len(entries))
	for _, e := range entries {
		if e.File == nil {
			out = append(out, e)
			continue
		}
		if _, ok := domain.DocumentTypeForKey(e.Key); !ok {
			continue
		}

		res, err := s.store.Upload(ctx, *e.File, folder)
		if err != nil {
			return nil, err
		}
		if e.Filename == "" {
			e.Filename = e.File.Filename
		}
		e.URL = res.SecureURL
		e.File = nil
		out = append(out, e)
	}
	return out, nil
}
