package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

// Service the part of MedService the suites exercise.
type Service interface {
	AnalyzeText(ctx context.Context, text string) (string, error)
	AnalyzeImage(ctx context.Context, imageData []byte, userPrompt string) (*domain.ImageAnalysis, error)
	AnalyzeNoteMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
	SimplifyReportMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
}

type ExampleResult struct {
	Inputs    ExampleInputs `json:"inputs"`
	Result    string        `json:"result"`
	Error     string        `json:"error,omitempty"`
	ElapsedMs int64         `json:"elapsedMs"`
	Feedback  []Feedback    `json:"feedback"`
}

// Experiment one run of a suite.
type Experiment struct {
	Name      string             `json:"name"`
	Suite     string             `json:"suite"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
	StartedAt time.Time          `json:"startedAt"`
	Results   []*ExampleResult   `json:"results"`
	Means     map[string]float64 `json:"means"`
}

type Runner struct {
	service    Service
	evaluators map[string]Evaluator
	baseDir    string
	logger     common.Logger
}

// NewRunner `baseDir` is where relative image paths of the examples are resolved.
func NewRunner(service Service, evaluators []Evaluator, baseDir string, logger common.Logger) *Runner {
	byKey := make(map[string]Evaluator, len(evaluators))
	for _, evaluator := range evaluators {
		byKey[evaluator.Key()] = evaluator
	}
	return &Runner{
		service:    service,
		evaluators: byKey,
		baseDir:    baseDir,
		logger:     logger,
	}
}

// RunSuite returns nil if none of the suite's examples can run (their images are missing).
func (r *Runner) RunSuite(ctx context.Context, suite *Suite) (*Experiment, error) {
	evaluators, err := r.suiteEvaluators(suite)
	if err != nil {
		return nil, err
	}
	examples := suite.ValidExamples(r.baseDir)
	if len(examples) == 0 {
		common.Logf(r.logger, "suite %s skipped: no example has its image", suite.Name)
		return nil, nil
	}
	if skipped := len(suite.Examples) - len(examples); skipped > 0 {
		common.Logf(r.logger, "suite %s: %d example(s) skipped because their image is missing", suite.Name, skipped)
	}
	experiment := &Experiment{
		Name:      suite.ExperimentPrefix + "-" + uuid.NewString()[:8],
		Suite:     suite.Name,
		Metadata:  suite.Metadata,
		StartedAt: time.Now(),
	}
	common.Logf(r.logger, "running experiment %s (%d examples)", experiment.Name, len(examples))
	for i := range examples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.runExample(ctx, suite.Kind, &examples[i], evaluators)
		experiment.Results = append(experiment.Results, result)
		common.Logf(r.logger, "%s #%d: %s", experiment.Name, i+1, formatFeedback(result.Feedback))
	}
	experiment.Means = computeMeans(experiment.Results)
	common.Logf(r.logger, "experiment %s done: %s", experiment.Name, formatMeans(experiment.Means))
	return experiment, nil
}

func (r *Runner) suiteEvaluators(suite *Suite) ([]Evaluator, error) {
	evaluators := make([]Evaluator, 0, len(suite.Evaluators))
	for _, key := range suite.Evaluators {
		evaluator, ok := r.evaluators[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown evaluator %q", ErrInvalidSuite, suite.Name, key)
		}
		evaluators = append(evaluators, evaluator)
	}
	return evaluators, nil
}

// A failed call is still evaluated, with an empty answer.
func (r *Runner) runExample(ctx context.Context, kind SuiteKind, example *Example, evaluators []Evaluator) *ExampleResult {
	t := time.Now()
	answer, err := r.answer(ctx, kind, example)
	result := &ExampleResult{
		Inputs:    example.Inputs,
		ElapsedMs: time.Since(t).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		common.LogErrorf(r.logger, "example %q failed: %v", example.Input(), err)
	} else {
		result.Result = answer
	}
	run := &Run{Example: example, Result: result.Result, Error: result.Error}
	for _, evaluator := range evaluators {
		result.Feedback = append(result.Feedback, evaluator.Evaluate(ctx, run))
	}
	return result
}

func (r *Runner) answer(ctx context.Context, kind SuiteKind, example *Example) (string, error) {
	if kind == SuiteKindText {
		return r.service.AnalyzeText(ctx, example.Inputs.Text)
	}
	imageData, err := os.ReadFile(example.ResolveImagePath(r.baseDir))
	if err != nil {
		return "", err
	}
	switch kind {
	case SuiteKindImage:
		analysis, err := r.service.AnalyzeImage(ctx, imageData, example.Inputs.Prompt)
		if err != nil {
			return "", err
		}
		return analysis.Result, nil
	case SuiteKindScribe:
		return r.service.AnalyzeNoteMultimodal(ctx, imageData, example.Inputs.Prompt)
	case SuiteKindSimplify:
		return r.service.SimplifyReportMultimodal(ctx, imageData, example.Inputs.Prompt)
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSuite, kind)
	}
}

func computeMeans(results []*ExampleResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, result := range results {
		for _, feedback := range result.Feedback {
			sums[feedback.Key] += feedback.Score
			counts[feedback.Key]++
		}
	}
	means := make(map[string]float64, len(sums))
	for key, sum := range sums {
		means[key] = sum / float64(counts[key])
	}
	return means
}

func formatFeedback(feedback []Feedback) string {
	var s string
	for i, f := range feedback {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%.2f", f.Key, f.Score)
	}
	return s
}

func formatMeans(means map[string]float64) string {
	keys := make([]string, 0, len(means))
	for key := range means {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	feedback := make([]Feedback, 0, len(keys))
	for _, key := range keys {
		feedback = append(feedback, Feedback{Key: key, Score: means[key]})
	}
	return formatFeedback(feedback)
}

// WriteReport saves the experiment as `<dir>/<experiment name>.json` and returns the path.
func WriteReport(dir string, experiment *Experiment) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(experiment, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, experiment.Name+".json")
	return path, os.WriteFile(path, data, 0644)
}
