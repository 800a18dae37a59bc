package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// UserService manages existing accounts.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes contact details, company profile and document URLs.
// Documents go through the alias table but no role policy is applied.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ports.ProfileUpdateInput) (*domain.User, error) {
	patch := domain.UserPatch{}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		v := strings.TrimSpace(*in.FullName)
		patch.FullName = &v
	}
	if in.Phone != nil && strings.TrimSpace(*in.Phone) != "" {
		v := strings.TrimSpace(*in.Phone)
		patch.Phone = &v
	}
	patch.CompanyProfile = domain.CompanyProfileFromMap(in.CompanyProfile)

	if len(in.Documents) > 0 {
		docs, err := NormalizeDocuments("", in.Documents)
		if err != nil {
			return nil, err
		}
		patch.Documents = domain.FromDocuments(docs)
	}

	return s.repo.Update(ctx, id, patch)
}

// SetRole changes the role of an account.
func (s *UserService) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	r, ok := domain.ParseRole(role)
	if !ok || strings.TrimSpace(role) == "" {
		return nil, domain.Validation("role must be one of %s, %s, %s",
			domain.RoleCulturalPartner, domain.RoleLicenseBuyer, domain.RoleAdmin)
	}

	user, err := s.repo.Update(ctx, id, domain.UserPatch{Role: &r})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("role", string(r)).Msg("role changed")
	return user, nil
}

// VerifyEmail marks the account as verified.
func (s *UserService) VerifyEmail(ctx context.Context, id string) (*domain.User, error) {
	status := domain.VerificationVerified
	now := time.Now().UTC()
	return s.repo.Update(ctx, id, domain.UserPatch{
		VerificationStatus: &status,
		EmailVerifiedAt:    &now,
	})
}

// SetDocumentURL stores url under the attribute for docType, which may be a
// canonical tag or a localized alias.
func (s *UserService) SetDocumentURL(ctx context.Context, id, docType, url string) (*domain.User, error) {
	t, ok := domain.DocumentTypeForKey(docType)
	if !ok {
		return nil, domain.Validation("unsupported document type %q", docType)
	}
	return s.repo.Update(ctx, id, domain.UserPatch{
		Documents: domain.DocumentURLs{t: url},
	})
}
