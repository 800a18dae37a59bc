package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

type stubUserService struct {
	id       string
	update   ports.ProfileUpdateInput
	role     string
	err      error
	verified bool
}

func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	s.id = id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id, Email: "a@example.com", Role: domain.RoleLicenseBuyer}, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, in ports.ProfileUpdateInput) (*domain.User, error) {
	s.id, s.update = id, in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id}, nil
}

func (s *stubUserService) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	s.id, s.role = id, role
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id, Role: domain.Role(role)}, nil
}

func (s *stubUserService) VerifyEmail(ctx context.Context, id string) (*domain.User, error) {
	s.id, s.verified = id, true
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: id, VerificationStatus: domain.VerificationVerified}, nil
}

func TestUserHandler_Me(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodGet, "/api/users/me", nil), h.Me,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.id != "u1" {
		t.Fatalf("expected lookup of u1, got %q", stub.id)
	}
	if resp := decodeBody(t, rec); resp["email"] != "a@example.com" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUserHandler_Me_NotFound(t *testing.T) {
	h := NewUserHandler(&stubUserService{err: domain.ErrUserNotFound})

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodGet, "/api/users/me", nil), h.Me,
		authenticated("gone", domain.RoleLicenseBuyer, "tok"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUserHandler_UpdateMe(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	body := `{"fullName":"Sari","phone":"0811","nomorTelepon":"0822",
		"companyProfile":{"industry":"textile"},
		"documents":[{"type":"DOKUMEN_PAJAK","url":"https://x/npwp"},{"url":"https://x/untyped"}]}`
	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPatch, "/api/users/me", body), h.UpdateMe,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	in := stub.update
	if in.FullName == nil || *in.FullName != "Sari" {
		t.Fatalf("unexpected full name: %v", in.FullName)
	}
	if in.Phone == nil || *in.Phone != "0822" {
		t.Fatalf("nomorTelepon should win over phone: %v", in.Phone)
	}
	if in.CompanyProfile["industry"] != "textile" {
		t.Fatalf("unexpected company profile: %+v", in.CompanyProfile)
	}
	if len(in.Documents) != 1 || in.Documents[0].Key != "DOKUMEN_PAJAK" || !in.Documents[0].Listed {
		t.Fatalf("unexpected documents: %+v", in.Documents)
	}
}

func TestUserHandler_UpdateMe_InvalidDocuments(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPatch, "/api/users/me", `{"documents":42}`), h.UpdateMe,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.id != "" {
		t.Fatalf("service should not be called")
	}
}

func TestUserHandler_SetRole(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPut, "/api/users/u2/role", `{"role":"CULTURAL_PARTNER"}`), h.SetRole,
		authenticated("admin", domain.RoleAdmin, "tok"),
		withParam("id", "u2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.id != "u2" || stub.role != "CULTURAL_PARTNER" {
		t.Fatalf("unexpected forwarding: %+v", stub)
	}
}

func TestUserHandler_SetRole_Invalid(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	for _, body := range []string{`{"role":"SUPERUSER"}`, `{}`} {
		rec := serve(t, newTestEcho(), jsonRequest(http.MethodPut, "/api/users/u2/role", body), h.SetRole,
			authenticated("admin", domain.RoleAdmin, "tok"),
			withParam("id", "u2"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
	if stub.role != "" {
		t.Fatalf("service should not be called")
	}
}

func TestUserHandler_Verify(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub)

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodPost, "/api/users/u2/verify", nil), h.Verify,
		authenticated("admin", domain.RoleAdmin, "tok"),
		withParam("id", "u2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.verified || stub.id != "u2" {
		t.Fatalf("expected u2 to be verified")
	}
	if resp := decodeBody(t, rec); resp["verificationStatus"] != "VERIFIED" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
