package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

// Evaluator keys, as they appear in suites and reports.
const (
	KeyBoundingBoxValid      = "bounding_box_valid"
	KeyMedicalEntityRecall   = "medical_entity_recall"
	KeyFormatCompliance      = "format_compliance"
	KeySimplicityConciseness = "simplicity_conciseness"
	KeyNoReasoningLeak       = "no_reasoning_leak"
	KeyQualitativeCheck      = "qualitative_check"
	KeyToneAndEmpathy        = "tone_and_empathy"
	KeyMedicalCorrectness    = "medical_correctness"
)

// Run one answer of the service to one example.
type Run struct {
	Example *Example
	Result  string
	Error   string
}

// Feedback a score in [0, 1] given by one evaluator to one run.
type Feedback struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment,omitempty"`
}

type Evaluator interface {
	Key() string
	Evaluate(ctx context.Context, run *Run) Feedback
}

// HeuristicEvaluators evaluators which need nothing but the answer and the example.
func HeuristicEvaluators() []Evaluator {
	return []Evaluator{
		&boundingBoxEvaluator{},
		&entityRecallEvaluator{},
		&formatComplianceEvaluator{},
		&simplicityEvaluator{},
		&reasoningLeakEvaluator{},
		&qualitativeCheckEvaluator{},
	}
}

// The answer must contain a box if and only if the example expects one.
type boundingBoxEvaluator struct{}

func (b *boundingBoxEvaluator) Key() string {
	return KeyBoundingBoxValid
}

func (b *boundingBoxEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	score := 0.0
	if domain.HasBoundingBox(run.Result) == run.Example.Outputs.HasBox {
		score = 1.0
	}
	return Feedback{Key: b.Key(), Score: score}
}

// Share of the expected entities mentioned in the answer (case-insensitive substring match).
type entityRecallEvaluator struct{}

func (e *entityRecallEvaluator) Key() string {
	return KeyMedicalEntityRecall
}

func (e *entityRecallEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	entities := run.Example.Outputs.Entities
	if len(entities) == 0 {
		return Feedback{Key: e.Key(), Score: 1.0}
	}
	response := strings.ToLower(run.Result)
	var missing []string
	for _, entity := range entities {
		if !strings.Contains(response, strings.ToLower(entity)) {
			missing = append(missing, entity)
		}
	}
	feedback := Feedback{
		Key:   e.Key(),
		Score: float64(len(entities)-len(missing)) / float64(len(entities)),
	}
	if len(missing) > 0 {
		feedback.Comment = "missing: " + strings.Join(missing, ", ")
	}
	return feedback
}

var numberedListRegexp = regexp.MustCompile(`(?m)^\d+\.`)

// The patient portal renders bold labels and bullet lists, so a simplified report should use both.
type formatComplianceEvaluator struct{}

func (f *formatComplianceEvaluator) Key() string {
	return KeyFormatCompliance
}

func (f *formatComplianceEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	response := run.Result
	hasBold := strings.Contains(response, "**")
	hasBullets := strings.Contains(response, "-") || strings.Contains(response, "*") || numberedListRegexp.MatchString(response)
	score := 0.0
	switch {
	case hasBold && hasBullets:
		score = 1.0
	case hasBold || hasBullets:
		score = 0.5
	}
	return Feedback{Key: f.Key(), Score: score}
}

// Patient-facing answers should be neither curt nor a wall of text.
type simplicityEvaluator struct{}

func (s *simplicityEvaluator) Key() string {
	return KeySimplicityConciseness
}

func (s *simplicityEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	wordCount := len(strings.Fields(run.Result))
	var score float64
	switch {
	case wordCount < 20:
		score = 0.5
	case wordCount < 250:
		score = 1.0
	default:
		score = 0.7
	}
	return Feedback{Key: s.Key(), Score: score, Comment: fmt.Sprintf("%d words", wordCount)}
}

var leakKeywords = []string{"thought", "i will", "reasoning", "user wants"}

// Catches chain-of-thought the response cleaner failed to remove.
type reasoningLeakEvaluator struct{}

func (r *reasoningLeakEvaluator) Key() string {
	return KeyNoReasoningLeak
}

func (r *reasoningLeakEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	response := strings.ToLower(run.Result)
	for _, keyword := range leakKeywords {
		if strings.Contains(response, keyword) {
			return Feedback{Key: r.Key(), Score: 0.0, Comment: fmt.Sprintf("found %q", keyword)}
		}
	}
	return Feedback{Key: r.Key(), Score: 1.0}
}
