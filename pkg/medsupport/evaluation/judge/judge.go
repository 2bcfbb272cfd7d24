// Package judge provides hosted LLMs which grade the service's answers during evaluation.
package judge

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"kgeyst.com/medsupport/pkg/common"
)

const (
	// ConfigKeyJudgeProvider "gemini" or "openai"
	ConfigKeyJudgeProvider = "judgeProvider"
	// ConfigKeyJudgeModel the judge model; defaults depend on the provider
	ConfigKeyJudgeModel = "judgeModel"
	// ConfigKeyJudgeRateLimit maximum judge calls per second (0 means unlimited)
	ConfigKeyJudgeRateLimit = "judgeRateLimit"
	// ConfigKeyJudgeBaseURL overrides the OpenAI endpoint (for OpenAI-compatible providers)
	ConfigKeyJudgeBaseURL = "judgeBaseURL"
	// ConfigKeyGoogleAPIKey falls back to the GOOGLE_API_KEY environment variable
	ConfigKeyGoogleAPIKey = "googleAPIKey"
	// ConfigKeyOpenAIAPIKey falls back to the OPENAI_API_KEY environment variable
	ConfigKeyOpenAIAPIKey = "openaiAPIKey"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Judge a hosted model which grades answers. Close releases its connections.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
	Close() error
}

// NewJudgeFromConfig returns nil (and no error) when the provider's API key is not configured: evaluation then
// runs with the judged metrics skipped.
func NewJudgeFromConfig(ctx context.Context, config *common.Config) (Judge, error) {
	provider := config.GetStringOrDefault(ConfigKeyJudgeProvider, ProviderGemini)
	limiter := newLimiter(config.GetFloatOrDefault(ConfigKeyJudgeRateLimit, 0))
	switch provider {
	case ProviderGemini:
		apiKey := config.GetStringOrDefault(ConfigKeyGoogleAPIKey, os.Getenv("GOOGLE_API_KEY"))
		if apiKey == "" {
			return nil, nil
		}
		return NewGeminiJudge(ctx, apiKey, config.GetStringOrDefault(ConfigKeyJudgeModel, DefaultGeminiModel), limiter)
	case ProviderOpenAI:
		apiKey := config.GetStringOrDefault(ConfigKeyOpenAIAPIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, nil
		}
		return NewOpenAIJudge(
			apiKey,
			config.GetString(ConfigKeyJudgeBaseURL),
			config.GetStringOrDefault(ConfigKeyJudgeModel, DefaultOpenAIModel),
			limiter,
		), nil
	default:
		return nil, fmt.Errorf("unknown judge provider %q", provider)
	}
}

func newLimiter(callsPerSecond float64) *rate.Limiter {
	if callsPerSecond > 0 {
		return rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return rate.NewLimiter(rate.Inf, 0)
}
