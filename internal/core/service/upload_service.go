package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// userDocuments is the slice of UserService the upload flow needs.
type userDocuments interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	SetDocumentURL(ctx context.Context, id, docType, url string) (*domain.User, error)
}

// UploadService stores files in the object store and attaches them to users.
type UploadService struct {
	store         ports.ObjectStore
	signer        ports.UploadSigner
	users         userDocuments
	defaultFolder string
	log           zerolog.Logger
}

func NewUploadService(
	store ports.ObjectStore,
	signer ports.UploadSigner,
	users userDocuments,
	defaultFolder string,
	log zerolog.Logger,
) *UploadService {
	if defaultFolder == "" {
		defaultFolder = defaultUploadFolder
	}
	return &UploadService{
		store:         store,
		signer:        signer,
		users:         users,
		defaultFolder: defaultFolder,
		log:           log,
	}
}

// Upload stores file under folder and returns the store's metadata.
func (s *UploadService) Upload(ctx context.Context, file domain.FilePayload, folder string) (*ports.UploadResult, error) {
	if err := s.store.Ready(); err != nil {
		return nil, err
	}
	if len(file.Data) == 0 {
		return nil, domain.Validation("missing file in form-data (field name: file)")
	}
	return s.store.Upload(ctx, file, folder)
}

// UploadUserDocument stores file and records its URL on the user under the
// attribute for docType. The object store is checked before the user lookup
// so a misconfigured server never touches the database.
func (s *UploadService) UploadUserDocument(
	ctx context.Context,
	userID, docType string,
	file domain.FilePayload,
	folder string,
) (string, *domain.User, error) {
	if err := s.store.Ready(); err != nil {
		return "", nil, err
	}
	if userID == "" || docType == "" || len(file.Data) == 0 {
		return "", nil, domain.Validation("missing required fields: userId, type, file")
	}
	t, ok := domain.DocumentTypeForKey(docType)
	if !ok {
		return "", nil, domain.Validation("unsupported document type %q", docType)
	}

	if _, err := s.users.Get(ctx, userID); err != nil {
		return "", nil, err
	}

	if folder == "" {
		folder = s.defaultFolder
	}
	res, err := s.store.Upload(ctx, file, folder)
	if err != nil {
		return "", nil, err
	}

	user, err := s.users.SetDocumentURL(ctx, userID, string(t), res.SecureURL)
	if err != nil {
		return "", nil, fmt.Errorf("upload document: update user: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("document", string(t)).
		Msg("user document uploaded")

	return res.SecureURL, user, nil
}

// Sign issues a direct-upload signature for folder.
func (s *UploadService) Sign(folder string) (*ports.UploadSignature, error) {
	return s.signer.SignUpload(folder)
}
