// Package openaicompat talks to a local inference server which exposes the OpenAI chat completion API
// (mlx_vlm.server, vLLM, llama.cpp server, LM Studio). The server keeps the model in memory between calls and
// applies the model's chat template, so the service only sends messages.
package openaicompat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

const (
	// ConfigKeyModelServerURL the base URL of the OpenAI-compatible API, including the version prefix
	ConfigKeyModelServerURL = "modelServerURL"
	// ConfigKeyModelAPIKey the API key, if the server wants one (local servers usually don't)
	ConfigKeyModelAPIKey = "modelAPIKey"
)

const (
	DefaultModelServerURL  = "http://127.0.0.1:8080/v1"
	defaultResponseTimeout = 5 * time.Minute
)

// ErrModelNotServed the server is up but serves other models only.
var ErrModelNotServed = errors.New("model is not served by the inference server")

type languageModel struct {
	client          *openai.Client
	model           string
	responseTimeout time.Duration
}

// NewLanguageModel creates a client for `model` as the server knows it (usually the model path it was started with).
// Nothing is sent over the network until the first call.
func NewLanguageModel(model string, config *common.Config) domain.VisionLanguageModel {
	return newLanguageModel(model, config)
}

func newLanguageModel(model string, config *common.Config) *languageModel {
	clientConfig := openai.DefaultConfig(config.GetStringOrDefault(ConfigKeyModelAPIKey, "local"))
	clientConfig.BaseURL = strings.TrimSuffix(config.GetStringOrDefault(ConfigKeyModelServerURL, DefaultModelServerURL), "/")
	clientConfig.HTTPClient = &http.Client{
		Transport: newSamplingTransport(http.DefaultTransport),
	}
	return &languageModel{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           model,
		responseTimeout: config.GetDurationOrDefault(domain.ConfigKeyResponseTimeout, defaultResponseTimeout),
	}
}

// Load creates the client and makes sure the server actually serves the model. A server which lists no models
// at all is trusted to serve whatever it is asked for.
func Load(ctx context.Context, model string, config *common.Config) (domain.VisionLanguageModel, error) {
	l := newLanguageModel(model, config)
	if err := l.verify(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *languageModel) Name() string {
	return l.model
}

func (l *languageModel) verify(ctx context.Context) error {
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(models.Models) == 0 {
		return nil
	}
	served := make([]string, 0, len(models.Models))
	for _, model := range models.Models {
		if sameModel(model.ID, l.model) {
			return nil
		}
		served = append(served, model.ID)
	}
	return fmt.Errorf("%w: %s (served: %s)", ErrModelNotServed, l.model, strings.Join(served, ", "))
}

// Servers report either the exact path they were started with or just its last element.
func sameModel(served, wanted string) bool {
	served = strings.TrimSuffix(served, "/")
	wanted = strings.TrimSuffix(wanted, "/")
	return served == wanted || path.Base(served) == path.Base(wanted)
}

func (l *languageModel) Complete(ctx context.Context, request domain.CompleteRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.responseTimeout)
	defer cancel()
	ctx = withRepetitionPenalty(ctx, request.Options.RepetitionPenaltyOrDefault(domain.DefaultRepetitionPenalty))
	response, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    []openai.ChatCompletionMessage{buildUserMessage(request)},
		MaxTokens:   request.Options.MaxTokensOrDefault(domain.DefaultMaxTokens),
		Temperature: float32(request.Options.TemperatureOrDefault(domain.DefaultTemperature)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInferenceFailed, err)
	}
	if len(response.Choices) == 0 {
		return "", domain.ErrEmptyResponse
	}
	return response.Choices[0].Message.Content, nil
}

// Image part first, then the text part.
func buildUserMessage(request domain.CompleteRequest) openai.ChatCompletionMessage {
	if request.Image == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: request.Prompt,
		}
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    imageDataURL(request.Image),
					Detail: openai.ImageURLDetailAuto,
				},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: request.Prompt,
			},
		},
	}
}

func imageDataURL(image *domain.Image) string {
	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
}
