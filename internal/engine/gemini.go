package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiCompleter talks to the Gemini API directly so top-p and top-k
// can be set alongside temperature.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiCompleter dials the Gemini API with the configured key.
func NewGeminiCompleter(ctx context.Context, c Config) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.LLMAPIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(c.LLMModel)
	model.SetTemperature(float32(c.LLMTemperature))
	model.SetTopP(float32(c.LLMTopP))
	model.SetTopK(int32(c.LLMTopK))
	if c.LLMMaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.LLMMaxTokens))
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete sends one prompt and concatenates the text parts of every candidate.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
			return "", &FatalError{Reason: "gemini rejected credentials", Err: err}
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String(), nil
}

// Close releases the underlying client.
func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}
