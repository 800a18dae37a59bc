package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// DefaultImageModelURL is the hosted batik diffusion model.
const DefaultImageModelURL = "https://router.huggingface.co/models/bayusetia/rupagen-batik-full"

const (
	negativePrompt    = "blurry, low quality, distortion, ugly"
	inferenceSteps    = 25
	guidanceScale     = 7.5
	modelWarmingUpMsg = "model is warming up, try again in about 20 seconds"
)

type imageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

type imageParameters struct {
	NegativePrompt    string  `json:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// ImageClient renders batik motifs through a hosted inference endpoint.
type ImageClient struct {
	modelURL string
	token    string
	up       *upstream
	log      zerolog.Logger
}

func NewImageClient(modelURL, token string, client *http.Client, timeout time.Duration, log zerolog.Logger) *ImageClient {
	if modelURL == "" {
		modelURL = DefaultImageModelURL
	}
	return &ImageClient{
		modelURL: modelURL,
		token:    token,
		up:       newUpstream("image model", client, timeout, log),
		log:      log,
	}
}

// BatikPrompt wraps a user prompt with the model's trigger word and styling.
func BatikPrompt(prompt string) string {
	return "TOK batik pattern, " + prompt + ", traditional indonesian art, detailed, 4k"
}

func (c *ImageClient) Generate(ctx context.Context, prompt string) (*ports.GeneratedImage, error) {
	if c.token == "" {
		return nil, domain.NewError(domain.ErrNotConfigured, "image generation is not configured on server")
	}

	payload, err := json.Marshal(imageRequest{
		Inputs: BatikPrompt(prompt),
		Parameters: imageParameters{
			NegativePrompt:    negativePrompt,
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.up.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		c.log.Error().Int("status", resp.status).Str("body", truncate(string(resp.body), 512)).Msg("image model error")
		if strings.Contains(string(resp.body), "loading") {
			return nil, domain.NewError(domain.ErrUpstreamUnavailable, modelWarmingUpMsg)
		}
		return nil, domain.NewError(domain.ErrUpstream, "failed to process image")
	}

	mediaType, _, _ := mime.ParseMediaType(resp.contentType)
	if mediaType == "application/json" {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(resp.body, &body); err != nil || body.URL == "" {
			return nil, domain.NewError(domain.ErrUpstream, "failed to process image")
		}
		return &ports.GeneratedImage{URL: body.URL}, nil
	}

	if len(resp.body) == 0 {
		return nil, domain.NewError(domain.ErrUpstream, "failed to process image")
	}
	return &ports.GeneratedImage{ContentType: mediaType, Data: resp.body}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
