package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const DefaultOpenAIModel = "gpt-4o-mini"

var errNoChoices = errors.New("openai returned no choices")

type openAIJudge struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter
}

// NewOpenAIJudge `baseURL` may be empty for the OpenAI API itself.
func NewOpenAIJudge(apiKey, baseURL, model string, rateLimiter *rate.Limiter) Judge {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &openAIJudge{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		rateLimiter: rateLimiter,
	}
}

func (o *openAIJudge) Judge(ctx context.Context, prompt string) (string, error) {
	if err := o.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}
	response, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errNoChoices
	}
	return response.Choices[0].Message.Content, nil
}

func (o *openAIJudge) Close() error {
	return nil
}
