package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

type stubStudioService struct {
	bearer   string
	page     int
	limit    int
	titleID  string
	content  string
	chatErr  error
	image    string
	imageURL string
	imageErr error
}

func (s *stubStudioService) CreateTitle(ctx context.Context, bearer string) (*ports.ChatTitle, error) {
	s.bearer = bearer
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &ports.ChatTitle{ID: "t1", Title: "New chat"}, nil
}

func (s *stubStudioService) ListTitles(ctx context.Context, bearer string, page, limit int) (*ports.ChatTitlePage, error) {
	s.bearer, s.page, s.limit = bearer, page, limit
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &ports.ChatTitlePage{Data: []ports.ChatTitle{{ID: "t1"}}, Pagination: ports.Pagination{Page: 1, Limit: 10, Total: 1, TotalPages: 1}}, nil
}

func (s *stubStudioService) SendMessage(ctx context.Context, bearer, titleID, content string) (*ports.ChatHistory, error) {
	s.bearer, s.titleID, s.content = bearer, titleID, content
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &ports.ChatHistory{TitleID: titleID, Messages: []ports.ChatMessage{{Role: "user", Content: content}, {Role: "assistant", Content: "Kawung"}}}, nil
}

func (s *stubStudioService) History(ctx context.Context, bearer, titleID string) (*ports.ChatHistory, error) {
	s.bearer, s.titleID = bearer, titleID
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &ports.ChatHistory{TitleID: titleID}, nil
}

func (s *stubStudioService) GenerateImage(ctx context.Context, prompt string) (string, string, error) {
	return s.image, s.imageURL, s.imageErr
}

func TestStudioHandler_Generate(t *testing.T) {
	stub := &stubStudioService{image: "data:image/png;base64,AAAA"}
	h := NewStudioHandler(stub)

	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPost, "/api/generate", `{"prompt":"parang"}`), h.Generate)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["image"] != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, ok := resp["url"]; ok {
		t.Fatalf("url must be omitted when image is set")
	}
}

func TestStudioHandler_Generate_URL(t *testing.T) {
	stub := &stubStudioService{imageURL: "https://img.test/1.png"}
	h := NewStudioHandler(stub)

	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPost, "/api/generate", `{"prompt":"parang"}`), h.Generate)

	if resp := decodeBody(t, rec); resp["url"] != "https://img.test/1.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStudioHandler_Generate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing prompt", `{}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"model loading", `{"prompt":"x"}`, domain.NewError(domain.ErrUpstreamUnavailable, "model is warming up"), http.StatusServiceUnavailable},
		{"upstream failure", `{"prompt":"x"}`, domain.NewError(domain.ErrUpstream, "failed to process image"), http.StatusInternalServerError},
		{"not configured", `{"prompt":"x"}`, domain.NewError(domain.ErrNotConfigured, "image model not configured"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStudioHandler(&stubStudioService{imageErr: tt.err})
			rec := serve(t, newTestEcho(), jsonRequest(http.MethodPost, "/api/generate", tt.body), h.Generate)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestStudioHandler_ListTitles(t *testing.T) {
	stub := &stubStudioService{}
	h := NewStudioHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/studio/titles?page=2&limit=5", nil)
	rec := serve(t, newTestEcho(), req, h.ListTitles, authenticated("u1", domain.RoleLicenseBuyer, "tok"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.bearer != "tok" || stub.page != 2 || stub.limit != 5 {
		t.Fatalf("unexpected forwarding: %+v", stub)
	}
}

func TestStudioHandler_RequiresIdentity(t *testing.T) {
	h := NewStudioHandler(&stubStudioService{})

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodGet, "/api/studio/titles", nil), h.ListTitles)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStudioHandler_CreateTitle(t *testing.T) {
	stub := &stubStudioService{}
	h := NewStudioHandler(stub)

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodPost, "/api/studio/titles", nil), h.CreateTitle,
		authenticated("u1", domain.RoleCulturalPartner, "tok"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["_id"] != "t1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStudioHandler_SendMessage(t *testing.T) {
	stub := &stubStudioService{}
	h := NewStudioHandler(stub)
	e := newTestEcho()

	rec := serve(t, e, jsonRequest(http.MethodPost, "/api/studio/titles/t9/messages", `{"content":"motif kawung?"}`), h.SendMessage,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"),
		withParam("id", "t9"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.titleID != "t9" || stub.content != "motif kawung?" || stub.bearer != "tok" {
		t.Fatalf("unexpected forwarding: %+v", stub)
	}
}

func TestStudioHandler_SendMessage_EmptyContent(t *testing.T) {
	stub := &stubStudioService{}
	h := NewStudioHandler(stub)

	rec := serve(t, newTestEcho(), jsonRequest(http.MethodPost, "/api/studio/titles/t9/messages", `{"content":""}`), h.SendMessage,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"),
		withParam("id", "t9"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if stub.titleID != "" {
		t.Fatalf("service should not be called")
	}
}

func TestStudioHandler_History_Unavailable(t *testing.T) {
	stub := &stubStudioService{chatErr: domain.NewError(domain.ErrUpstreamUnavailable, "chat service is temporarily unavailable, try again later")}
	h := NewStudioHandler(stub)

	rec := serve(t, newTestEcho(), httptest.NewRequest(http.MethodGet, "/api/studio/titles/t9/messages", nil), h.History,
		authenticated("u1", domain.RoleLicenseBuyer, "tok"),
		withParam("id", "t9"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
