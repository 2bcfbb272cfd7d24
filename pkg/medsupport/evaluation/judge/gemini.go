package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

var errNoCandidates = errors.New("gemini returned no candidates")

type geminiJudge struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	rateLimiter *rate.Limiter
}

func NewGeminiJudge(ctx context.Context, apiKey, model string, rateLimiter *rate.Limiter) (Judge, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	generativeModel := client.GenerativeModel(model)
	generativeModel.SetTemperature(0)
	return &geminiJudge{
		client:      client,
		model:       generativeModel,
		rateLimiter: rateLimiter,
	}, nil
}

func (g *geminiJudge) Judge(ctx context.Context, prompt string) (string, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}
	response, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return responseText(response)
}

func (g *geminiJudge) Close() error {
	return g.client.Close()
}

func responseText(response *genai.GenerateContentResponse) (string, error) {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", errNoCandidates
	}
	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
