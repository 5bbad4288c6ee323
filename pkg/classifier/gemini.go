package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"papertag/internal/vocab"
)

// GeminiClassifier classifies documents through the Google Gemini API.
type GeminiClassifier struct {
	client     *genai.Client
	model      string
	vocab      *vocab.Vocabulary
	maxTags    int
	bodyBudget int
}

// NewGemini builds a Gemini-backed classifier. The client does not dial
// until the first call, so construction only fails on bad options.
func NewGemini(ctx context.Context, apiKey, model string, v *vocab.Vocabulary, maxTags, bodyBudget int) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not provided")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	if bodyBudget <= 0 {
		bodyBudget = DefaultBodyBudget
	}
	return &GeminiClassifier{
		client:     client,
		model:      model,
		vocab:      v,
		maxTags:    maxTags,
		bodyBudget: bodyBudget,
	}, nil
}

func (c *GeminiClassifier) Classify(ctx context.Context, req Request) ([]string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(DefaultTemperature)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(c.vocab, req, c.bodyBudget)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return parseTags(sb.String(), c.vocab, c.maxTags), nil
}

// Close releases the underlying API connection.
func (c *GeminiClassifier) Close() error {
	return c.client.Close()
}
