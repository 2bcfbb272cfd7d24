package logging

import (
	"context"
	"time"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

type languageModelDecorator struct {
	wrappedLanguageModel domain.VisionLanguageModel
	logger               common.Logger
}

// NewLanguageModelDecorator logs raw prompts and raw responses (before any cleaning) of the wrapped model.
func NewLanguageModelDecorator(wrappedLanguageModel domain.VisionLanguageModel, logger common.Logger) domain.VisionLanguageModel {
	return &languageModelDecorator{
		wrappedLanguageModel: wrappedLanguageModel,
		logger:               logger,
	}
}

func (l *languageModelDecorator) Name() string {
	return l.wrappedLanguageModel.Name()
}

func (l *languageModelDecorator) Complete(ctx context.Context, request domain.CompleteRequest) (string, error) {
	requestID := domain.RequestIDFromContext(ctx)
	imageInfo := "no image"
	if request.Image != nil {
		imageInfo = request.Image.MIMEType + " image"
	}
	common.Logf(l.logger, "[%s] raw prompt (using '%s', %s):\n%s", requestID, l.Name(), imageInfo, request.Prompt)
	t := time.Now()
	response, err := l.wrappedLanguageModel.Complete(ctx, request)
	if err != nil {
		common.LogErrorf(l.logger, "[%s] model call failed after %d ms: %v", requestID, time.Since(t).Milliseconds(), err)
		return "", err
	}
	common.Logf(l.logger, "[%s] raw response (took %d ms):\n%s", requestID, time.Since(t).Milliseconds(), response)
	return response, nil
}
