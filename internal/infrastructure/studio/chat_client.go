package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// DefaultChatBaseURL is the hosted Rupa chat service.
const DefaultChatBaseURL = "https://rupagen-llm-service.vercel.app/api/dino/llm"

// ChatClient calls the remote chat service on behalf of a user.
type ChatClient struct {
	base string
	up   *upstream
}

func NewChatClient(baseURL string, client *http.Client, timeout time.Duration, log zerolog.Logger) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultChatBaseURL
	}
	return &ChatClient{
		base: strings.TrimRight(baseURL, "/"),
		up:   newUpstream("chat service", client, timeout, log),
	}
}

func (c *ChatClient) CreateTitle(ctx context.Context, bearer string) (*ports.ChatTitle, error) {
	var out struct {
		Data ports.ChatTitle `json:"data"`
	}
	if err := c.call(ctx, "create chat title", http.MethodPost, "/title", bearer, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *ChatClient) ListTitles(ctx context.Context, bearer string, page, limit int) (*ports.ChatTitlePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out ports.ChatTitlePage
	if err := c.call(ctx, "get chat titles", http.MethodGet, "/title?"+q.Encode(), bearer, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ChatClient) SendMessage(ctx context.Context, bearer, titleID, content string) (*ports.ChatHistory, error) {
	body := map[string]string{"content": content}
	var out struct {
		Data ports.ChatHistory `json:"data"`
	}
	if err := c.call(ctx, "send message", http.MethodPost, "/history/"+url.PathEscape(titleID), bearer, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *ChatClient) History(ctx context.Context, bearer, titleID string) (*ports.ChatHistory, error) {
	var out struct {
		Data ports.ChatHistory `json:"data"`
	}
	if err := c.call(ctx, "get chat history", http.MethodGet, "/history/"+url.PathEscape(titleID), bearer, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *ChatClient) call(ctx context.Context, op, method, path, bearer string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = b
	}

	resp, err := c.up.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return domain.NewError(domain.ErrUpstream, "failed to %s: %s", op, http.StatusText(resp.status))
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return domain.NewError(domain.ErrUpstream, "failed to %s: malformed response", op)
	}
	return nil
}
