// Package genai adapts the Gemini API to ports.ModelClient.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"labelcheck/internal/ports"
)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

var _ ports.ModelClient = (*Client)(nil)

// New creates a Gemini API client. An empty key is an error; callers that
// want demo mode pass a nil ports.ModelClient instead.
func New(ctx context.Context, apiKey, model string, log *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: c, model: model, log: log}, nil
}

// Generate sends the prompt followed by each media item as inline data.
func (c *Client) Generate(ctx context.Context, prompt string, media []ports.Media) (string, error) {
	parts := make([]*genai.Part, 0, len(media)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, m := range media {
		parts = append(parts, genai.NewPartFromBytes(m.Data, m.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if resp.UsageMetadata != nil {
		c.log.Debug("gemini usage",
			zap.String("model", c.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
