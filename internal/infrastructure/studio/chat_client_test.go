package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

func TestChatClient_CreateTitle(t *testing.T) {
	var gotAuth, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, gotMethod, gotPath = r.Header.Get("Authorization"), r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"_id":"t1","userId":"u1","title":"New chat","createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-01T10:00:00Z","__v":0}}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL+"/", srv.Client(), time.Second, zerolog.Nop())
	title, err := c.CreateTitle(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("CreateTitle returned error: %v", err)
	}
	if title.ID != "t1" || title.UserID != "u1" || title.Title != "New chat" {
		t.Fatalf("unexpected title: %+v", title)
	}
	if gotAuth != "Bearer tok-123" || gotMethod != http.MethodPost || gotPath != "/title" {
		t.Fatalf("unexpected request: %s %s auth=%q", gotMethod, gotPath, gotAuth)
	}
}

func TestChatClient_NoBearerWithoutToken(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{"data":[],"pagination":{"page":2,"limit":5,"total":0,"totalPages":0}}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), time.Second, zerolog.Nop())
	page, err := c.ListTitles(context.Background(), "", 2, 5)
	if err != nil {
		t.Fatalf("ListTitles returned error: %v", err)
	}
	if hadAuth {
		t.Fatalf("expected no Authorization header")
	}
	if page.Pagination.Page != 2 || page.Pagination.Limit != 5 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}
}

func TestChatClient_ListTitlesQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), time.Second, zerolog.Nop())
	if _, err := c.ListTitles(context.Background(), "tok", 1, 10); err != nil {
		t.Fatalf("ListTitles returned error: %v", err)
	}
	if query != "limit=10&page=1" {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestChatClient_SendMessage(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/history/t1" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"message":"ok","data":{"_id":"h1","titleId":"t1","messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"{\"reply\":\"halo\"}"}]}}`))
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), time.Second, zerolog.Nop())
	h, err := c.SendMessage(context.Background(), "tok", "t1", "hi")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if body["content"] != "hi" {
		t.Fatalf("unexpected request body: %v", body)
	}
	if h.ID != "h1" || len(h.Messages) != 2 || h.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestChatClient_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), time.Second, zerolog.Nop())
	_, err := c.History(context.Background(), "tok", "missing")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if err.Error() != "failed to get chat history: Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestChatClient_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), time.Second, zerolog.Nop())
	for i := 0; i < maxFailures; i++ {
		if _, err := c.CreateTitle(context.Background(), "tok"); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("call %d: expected upstream error, got %v", i, err)
		}
	}

	_, err := c.CreateTitle(context.Background(), "tok")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != maxFailures {
		t.Fatalf("expected %d upstream calls, got %d", maxFailures, calls)
	}
}

func TestChatClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, srv.Client(), 20*time.Millisecond, zerolog.Nop())
	_, err := c.CreateTitle(context.Background(), "tok")
	if !errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error on timeout, got %v", err)
	}
}
