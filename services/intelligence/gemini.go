// File: services/intelligence/gemini.go
package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	model  *genai.GenerativeModel
	vision *genai.GenerativeModel
}

func NewGeminiClient(apiKey string) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}

	return &GeminiClient{
		model:  client.GenerativeModel("models/gemini-1.5-flash"),
		vision: client.GenerativeModel("models/gemini-1.5-flash"),
	}
}

func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	return collectText(resp)
}

// GenerateFromImage runs the vision model over inline image bytes plus a
// text prompt.
func (g *GeminiClient) GenerateFromImage(ctx context.Context, prompt string, mimeType string, data []byte) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := g.vision.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData(format, data),
	)
	if err != nil {
		return "", fmt.Errorf("gemini vision error: %w", err)
	}
	return collectText(resp)
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return out, nil
}
