package domain

import (
	"context"
	"time"

	"kgeyst.com/medsupport/pkg/common"
)

// ImageAnalysis the answer to an image question plus the regions the model pointed at.
type ImageAnalysis struct {
	Result      string
	Annotations []Annotation
}

// MedService is the orchestrator of the whole service: for every task it builds the prompt, prepares the image,
// asks the model and cleans up what the model said. It holds no per-request state.
type MedService struct {
	model           VisionLanguageModel
	imagePreparer   ImagePreparer
	promptBuilder   *PromptBuilder
	responseCleaner ResponseCleaner
	traceRepository TraceRepository // nullable
	completeOptions CompleteOptions
	logger          common.Logger
}

func NewMedService(
	model VisionLanguageModel,
	imagePreparer ImagePreparer,
	promptBuilder *PromptBuilder,
	responseCleaner ResponseCleaner,
	traceRepository TraceRepository,
	config *common.Config,
	logger common.Logger,
) *MedService {
	return &MedService{
		model:           model,
		imagePreparer:   imagePreparer,
		promptBuilder:   promptBuilder,
		responseCleaner: responseCleaner,
		traceRepository: traceRepository,
		completeOptions: DefaultCompleteOptions.
			WithMaxTokens(config.GetIntOrDefault(ConfigKeyMaxTokens, DefaultMaxTokens)).
			WithTemperature(config.GetFloatOrDefault(ConfigKeyTemperature, DefaultTemperature)).
			WithRepetitionPenalty(config.GetFloatOrDefault(ConfigKeyRepetitionPenalty, DefaultRepetitionPenalty)),
		logger: logger,
	}
}

// AnalyzeText summarizes a clinical note or answers a medical question.
func (m *MedService) AnalyzeText(ctx context.Context, text string) (string, error) {
	return m.respond(ctx, TaskAnalyzeText, text, nil)
}

// SimplifyReport rewrites a medical report in plain English.
func (m *MedService) SimplifyReport(ctx context.Context, text string) (string, error) {
	return m.respond(ctx, TaskSimplifyReport, text, nil)
}

// AnalyzeImage describes the findings in a medical image and extracts the bounding boxes the model reported.
func (m *MedService) AnalyzeImage(ctx context.Context, imageData []byte, userPrompt string) (*ImageAnalysis, error) {
	result, err := m.respond(ctx, TaskAnalyzeImage, userPrompt, imageData)
	if err != nil {
		return nil, err
	}
	return &ImageAnalysis{
		Result:      result,
		Annotations: ExtractAnnotations(result),
	}, nil
}

// AnalyzeNoteMultimodal transcribes a photographed clinical note (or follows the user's instruction about it).
func (m *MedService) AnalyzeNoteMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error) {
	return m.respond(ctx, TaskAnalyzeNote, userPrompt, imageData)
}

// SimplifyReportMultimodal explains a photographed lab report to a patient.
func (m *MedService) SimplifyReportMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error) {
	return m.respond(ctx, TaskSimplifyLabReport, userPrompt, imageData)
}

func (m *MedService) respond(ctx context.Context, task TaskType, input string, imageData []byte) (result string, err error) {
	trace := &Trace{
		Task:      task,
		Input:     input,
		HasImage:  imageData != nil,
		StartedAt: time.Now(),
	}
	defer func() {
		m.storeTrace(ctx, trace, result, err)
	}()
	prompt, err := m.promptBuilder.BuildPrompt(task, input)
	if err != nil {
		return "", err
	}
	trace.Prompt = prompt
	var image *Image
	if imageData != nil {
		image, err = m.imagePreparer.PrepareImage(imageData)
		if err != nil {
			return "", err
		}
	}
	response, err := m.model.Complete(ctx, CompleteRequest{
		Prompt:  prompt,
		Image:   image,
		Options: m.completeOptions,
	})
	if err != nil {
		return "", err
	}
	return m.responseCleaner.CleanResponse(response), nil
}

func (m *MedService) storeTrace(ctx context.Context, trace *Trace, result string, err error) {
	if m.traceRepository == nil {
		return
	}
	trace.ID = RequestIDFromContext(ctx)
	if trace.ID == "" {
		trace.ID = m.traceRepository.NextID()
	}
	trace.Result = result
	if err != nil {
		trace.Error = err.Error()
	}
	trace.ElapsedMs = time.Since(trace.StartedAt).Milliseconds()
	if storeErr := m.traceRepository.Store(trace); storeErr != nil {
		common.LogErrorf(m.logger, "failed to store trace %s: %v", trace.ID, storeErr)
	}
}
