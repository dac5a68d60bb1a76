package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/lost-and-found-api/internal/models"
)

// CategorySuggester picks a category for an item posted without one.
type CategorySuggester interface {
	SuggestCategory(ctx context.Context, title, description string) (string, error)
}

type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithConfig allows pointing the client at another endpoint.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
	}
}

// SuggestCategory classifies a lost or found item into one of the known
// categories. Answers outside the known set become "other".
func (s *AIService) SuggestCategory(ctx context.Context, title, description string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You sort items reported on a campus lost-and-found board.
Pick exactly one category for the item below from this list: %s.

Title: %s
Description: %s

Answer with the category name only.`, strings.Join(models.KnownCategories, ", "), title, description)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4oMini,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return normalizeSuggestedCategory(resp.Choices[0].Message.Content), nil
}

func normalizeSuggestedCategory(answer string) string {
	answer = strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".\"'`"))
	for _, c := range models.KnownCategories {
		if answer == c {
			return c
		}
	}
	for _, c := range models.KnownCategories {
		if strings.Contains(answer, c) {
			return c
		}
	}
	return models.CategoryOther
}
