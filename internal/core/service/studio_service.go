package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

const (
	defaultTitlePage  = 1
	defaultTitleLimit = 10
	defaultImageType  = "image/jpeg"
)

// StudioService fronts the remote chat and image services.
type StudioService struct {
	chat   ports.ChatClient
	images ports.ImageGenerator
}

func NewStudioService(chat ports.ChatClient, images ports.ImageGenerator) *StudioService {
	return &StudioService{chat: chat, images: images}
}

func (s *StudioService) CreateTitle(ctx context.Context, bearer string) (*ports.ChatTitle, error) {
	return s.chat.CreateTitle(ctx, bearer)
}

func (s *StudioService) ListTitles(ctx context.Context, bearer string, page, limit int) (*ports.ChatTitlePage, error) {
	if page < 1 {
		page = defaultTitlePage
	}
	if limit < 1 {
		limit = defaultTitleLimit
	}
	return s.chat.ListTitles(ctx, bearer, page, limit)
}

func (s *StudioService) SendMessage(ctx context.Context, bearer, titleID, content string) (*ports.ChatHistory, error) {
	if strings.TrimSpace(titleID) == "" {
		return nil, domain.Validation("title id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.Validation("content is required")
	}
	h, err := s.chat.SendMessage(ctx, bearer, titleID, content)
	if err != nil {
		return nil, err
	}
	return shapeHistory(h), nil
}

func (s *StudioService) History(ctx context.Context, bearer, titleID string) (*ports.ChatHistory, error) {
	if strings.TrimSpace(titleID) == "" {
		return nil, domain.Validation("title id is required")
	}
	h, err := s.chat.History(ctx, bearer, titleID)
	if err != nil {
		return nil, err
	}
	return shapeHistory(h), nil
}

// GenerateImage renders a batik motif from prompt.
func (s *StudioService) GenerateImage(ctx context.Context, prompt string) (string, string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", "", domain.Validation("prompt is required")
	}
	img, err := s.images.Generate(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	if img.URL != "" {
		return "", img.URL, nil
	}
	ct := img.ContentType
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		ct = defaultImageType
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data), "", nil
}

func shapeHistory(h *ports.ChatHistory) *ports.ChatHistory {
	if h == nil {
		return nil
	}
	out := *h
	out.Messages = make([]ports.ChatMessage, len(h.Messages))
	for i, m := range h.Messages {
		if m.Role == "assistant" {
			m.Content = AssistantReply(m.Content)
		}
		out.Messages[i] = m
	}
	return &out
}

// AssistantReply extracts the reply field when content is a JSON object
// carrying a non-empty one, and returns content unchanged otherwise.
func AssistantReply(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return content
	}
	var body struct {
		Reply *string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(trimmed), &body); err != nil || body.Reply == nil || *body.Reply == "" {
		return content
	}
	return *body.Reply
}
