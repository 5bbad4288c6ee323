package classifier

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"papertag/internal/vocab"
)

// DefaultTemperature is the fixed low sampling temperature for
// classification calls; low for consistent results.
const DefaultTemperature = 0.3

// ChatCompleter is the minimal slice of the OpenAI client the
// classifier needs. Tests substitute a mock.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier classifies documents through the OpenAI chat
// completion API.
type OpenAIClassifier struct {
	client     ChatCompleter
	model      string
	vocab      *vocab.Vocabulary
	maxTags    int
	bodyBudget int
}

// NewOpenAI builds a classifier on an OpenAI-compatible client.
func NewOpenAI(client ChatCompleter, model string, v *vocab.Vocabulary, maxTags, bodyBudget int) *OpenAIClassifier {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	if bodyBudget <= 0 {
		bodyBudget = DefaultBodyBudget
	}
	return &OpenAIClassifier{
		client:     client,
		model:      model,
		vocab:      v,
		maxTags:    maxTags,
		bodyBudget: bodyBudget,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, req Request) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("openai classifier is not initialized with a client")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: DefaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(c.vocab, req, c.bodyBudget)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return parseTags(resp.Choices[0].Message.Content, c.vocab, c.maxTags), nil
}
