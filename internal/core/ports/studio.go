package ports

import (
	"context"
	"time"
)

// ChatTitle is a conversation owned by the remote chat service.
type ChatTitle struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination is the remote chat service's page envelope.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ChatTitlePage is one page of chat titles.
type ChatTitlePage struct {
	Data       []ChatTitle `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatHistory is the full message log of a conversation.
type ChatHistory struct {
	ID        string        `json:"_id"`
	TitleID   string        `json:"titleId"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ChatClient talks to the remote chat service. bearer is the caller's token
// and is forwarded as-is.
type ChatClient interface {
	CreateTitle(ctx context.Context, bearer string) (*ChatTitle, error)
	ListTitles(ctx context.Context, bearer string, page, limit int) (*ChatTitlePage, error)
	SendMessage(ctx context.Context, bearer, titleID, content string) (*ChatHistory, error)
	History(ctx context.Context, bearer, titleID string) (*ChatHistory, error)
}

// GeneratedImage is either inline image bytes or a hosted URL.
type GeneratedImage struct {
	ContentType string
	Data        []byte
	URL         string
}

// ImageGenerator renders an image from a text prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// StudioService shapes chat and image requests for the API.
type StudioService interface {
	CreateTitle(ctx context.Context, bearer string) (*ChatTitle, error)
	ListTitles(ctx context.Context, bearer string, page, limit int) (*ChatTitlePage, error)
	SendMessage(ctx context.Context, bearer, titleID, content string) (*ChatHistory, error)
	History(ctx context.Context, bearer, titleID string) (*ChatHistory, error)
	// GenerateImage returns a data URI or a hosted URL; exactly one is set.
	GenerateImage(ctx context.Context, prompt string) (dataURI, url string, err error)
}
