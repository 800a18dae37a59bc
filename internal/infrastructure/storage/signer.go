package storage

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// Credentials identify a Cloudinary account.
type Credentials struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c Credentials) complete() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Signer issues Cloudinary direct-upload signatures.
type Signer struct {
	creds Credentials
	now   func() time.Time
}

func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds, now: time.Now}
}

// SignUpload signs timestamp and folder. An empty folder is left out of the
// signed parameters.
func (s *Signer) SignUpload(folder string) (*ports.UploadSignature, error) {
	if !s.creds.complete() {
		return nil, domain.ErrStorageNotReady
	}
	ts := s.now().Unix()
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(ts, 10))
	if folder != "" {
		params.Set("folder", folder)
	}
	sig, err := api.SignParameters(params, s.creds.APISecret)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}
	return &ports.UploadSignature{
		APIKey:    s.creds.APIKey,
		CloudName: s.creds.CloudName,
		Timestamp: ts,
		Signature: sig,
		Folder:    folder,
	}, nil
}
