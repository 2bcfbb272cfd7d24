package api

import (
	"context"
	"fmt"
	"net/http"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
	"kgeyst.com/medsupport/pkg/medsupport/httpapi"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/filesystem"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/imaging"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/logging"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/mlxvlm"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/openaicompat"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/vlm"
)

// See domain/config.go
const (
	ConfigKeyLogPath      = domain.ConfigKeyLogPath
	ConfigKeyTraceLogPath = domain.ConfigKeyTraceLogPath
	ConfigKeyModelBackend = domain.ConfigKeyModelBackend
	ConfigKeyModelPath    = domain.ConfigKeyModelPath
	ConfigKeyPreloadModel = domain.ConfigKeyPreloadModel
)

const (
	BackendOpenAI = "openai"
	BackendMLXVLM = "mlxvlm"

	DefaultModelPath = "models/medgemma-1.5-4b-it-4bit"
)

// API is the entrypoint to MedSupport. It shouldn't contain any logic of its own; it glues all the components
// together and provides a public interface for domain.MedService.
// This API can be used in various contexts: an HTTP server, console input/output, the evaluation harness etc.
type API interface {
	// AnalyzeText summarizes a clinical note or answers a medical question.
	AnalyzeText(ctx context.Context, text string) (string, error)
	// SimplifyReport rewrites a medical report in words a patient understands.
	SimplifyReport(ctx context.Context, text string) (string, error)
	// AnalyzeImage describes a medical image; regions the model pointed at are returned as annotations.
	AnalyzeImage(ctx context.Context, imageData []byte, userPrompt string) (*domain.ImageAnalysis, error)
	// AnalyzeNoteMultimodal transcribes a photo of a clinical note or prescription. An empty prompt means
	// "just transcribe it".
	AnalyzeNoteMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
	// SimplifyReportMultimodal explains a photo of a lab report. An empty prompt means "explain every value".
	SimplifyReportMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
	// LoadModel loads the model now instead of on the first request. Failing is not fatal: the next request
	// tries again.
	LoadModel(ctx context.Context) error
	// HTTPHandler serves the REST API (see httpapi.Routes).
	HTTPHandler() http.Handler
	// Logger is where the service logs; binaries log their own lifecycle there as well.
	Logger() common.Logger
	// Close flushes the trace log.
	Close() error
}

type api struct {
	*domain.MedService
	model           *vlm.LazyModel
	traceRepository *filesystem.TraceRepository // nullable
	handler         http.Handler
	logger          common.Logger
}

func NewAPI(config *common.Config) (API, error) {
	logger := common.NewLoggerFromConfig(config, ConfigKeyLogPath)
	model, err := newModel(config, logger)
	if err != nil {
		return nil, err
	}
	var traceRepository *filesystem.TraceRepository
	var domainTraceRepository domain.TraceRepository
	if traceLogPath := config.GetString(ConfigKeyTraceLogPath); traceLogPath != "" {
		traceRepository, err = filesystem.NewTraceRepository(traceLogPath, logger)
		if err != nil {
			return nil, fmt.Errorf("cannot open the trace log: %w", err)
		}
		domainTraceRepository = traceRepository
	}
	medService := domain.NewMedService(
		logging.NewLanguageModelDecorator(model, logger),
		imaging.NewPreparer(config),
		domain.NewPromptBuilder(),
		domain.NewReasoningCleaner(),
		domainTraceRepository,
		config,
		logger,
	)
	handler := httpapi.NewRouter(httpapi.NewHandler(medService, config, logger), logger)
	return &api{
		MedService:      medService,
		model:           model,
		traceRepository: traceRepository,
		handler:         handler,
		logger:          logger,
	}, nil
}

func newModel(config *common.Config, logger common.Logger) (*vlm.LazyModel, error) {
	modelPath := config.GetStringOrDefault(ConfigKeyModelPath, DefaultModelPath)
	switch backend := config.GetStringOrDefault(ConfigKeyModelBackend, BackendOpenAI); backend {
	case BackendOpenAI:
		return vlm.NewLazyModel(modelPath, func(ctx context.Context) (domain.VisionLanguageModel, error) {
			common.Logf(logger, "Connecting to the inference server for model %s...", modelPath)
			return openaicompat.Load(ctx, modelPath, config)
		}), nil
	case BackendMLXVLM:
		modelPath = mlxvlm.ResolveModelPath(modelPath)
		tempFilePathProvider := filesystem.NewTempFilePathProvider(config)
		return vlm.NewLazyModel(modelPath, func(ctx context.Context) (domain.VisionLanguageModel, error) {
			common.Logf(logger, "Loading model from %s...", modelPath)
			return mlxvlm.Load(ctx, modelPath, tempFilePathProvider, config)
		}), nil
	default:
		return nil, fmt.Errorf("unknown %s: %q (expected %q or %q)", ConfigKeyModelBackend, backend, BackendOpenAI, BackendMLXVLM)
	}
}

func (a *api) LoadModel(ctx context.Context) error {
	if _, err := a.model.Load(ctx); err != nil {
		common.LogErrorf(a.logger, "%v", err)
		return err
	}
	common.Logf(a.logger, "Model %s loaded successfully.", a.model.Name())
	return nil
}

func (a *api) HTTPHandler() http.Handler {
	return a.handler
}

func (a *api) Logger() common.Logger {
	return a.logger
}

func (a *api) Close() error {
	if a.traceRepository == nil {
		return nil
	}
	return a.traceRepository.Close()
}
