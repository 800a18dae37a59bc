package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int
	creates int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Documents != nil {
		clone.Documents = make(domain.DocumentURLs, len(u.Documents))
		for k, v := range u.Documents {
			clone.Documents[k] = v
		}
	}
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailExists
		}
	}
	r.nextID++
	c := cloneUser(user)
	c.ID = "user-" + strconv.Itoa(r.nextID)
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.CompanyProfile != nil {
		u.CompanyProfile = p.CompanyProfile
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.VerificationStatus != nil {
		u.VerificationStatus = *p.VerificationStatus
	}
	if p.EmailVerifiedAt != nil {
		u.EmailVerifiedAt = p.EmailVerifiedAt
	}
	for t, url := range p.Documents {
		if u.Documents == nil {
			u.Documents = make(domain.DocumentURLs)
		}
		u.Documents[t] = url
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// stubHasher avoids bcrypt cost in unit tests.
type stubHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (h *stubHasher) Verify(plain, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash == "hashed:"+plain
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("hash failed") }

func (failingHasher) Verify(string, string) bool { return false }

type stubTokens struct{}

func (stubTokens) Issue(c domain.Claims) (string, error) {
	return "token:" + c.UserID + ":" + string(c.Role), nil
}

func (stubTokens) Verify(tok string) (*domain.Claims, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 3 || parts[0] != "token" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Claims{UserID: parts[1], Role: domain.Role(parts[2])}, nil
}

type stubStore struct {
	notReady bool
	err      error
	uploads  []string
}

func (s *stubStore) Ready() error {
	if s.notReady {
		return domain.ErrStorageNotReady
	}
	return nil
}

func (s *stubStore) Upload(_ context.Context, f domain.FilePayload, folder string) (*ports.UploadResult, error) {
	if s.notReady {
		return nil, domain.ErrStorageNotReady
	}
	if s.err != nil {
		return nil, s.err
	}
	s.uploads = append(s.uploads, folder+"/"+f.Filename)
	url := "https://cdn.test/" + folder + "/" + f.Filename
	return &ports.UploadResult{SecureURL: url, PublicID: folder + "/" + f.Filename, Bytes: len(f.Data), Folder: folder}, nil
}

type stubLimiter struct {
	fails  map[string]int
	limit  int
	err    error
	resets int
}

func newStubLimiter(limit int) *stubLimiter {
	return &stubLimiter{fails: make(map[string]int), limit: limit}
}

func (l *stubLimiter) Locked(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.fails[key] >= l.limit, nil
}

func (l *stubLimiter) Fail(_ context.Context, key string) error {
	if l.err != nil {
		return l.err
	}
	l.fails[key]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	l.resets++
	delete(l.fails, key)
	return l.err
}
