package evaluation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Judge a general-purpose LLM which grades answers.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

const (
	skippedComment = "Skipped: Missing API Key"
	// failedScore when the judge fails or answers with something other than a number
	failedScore = 0.5
)

const tonePrompt = `Role: Senior Medical Communicator
Input: %s
Response: %s

Evaluate the response's tone and empathy.
1. Is it professional?
2. Is it empathetic to a patient?
3. Is it clear and free of jargon?

Respond with a single score between 1 and 5 (5 being perfect).
Output ONLY THE NUMBER.`

const correctnessPrompt = `Role: Board-Certified Physician
Input: %s
Model Response: %s
Expected Entities/Keywords: %s

Evaluate if the model's response is medically accurate and covers the key information required.
Ignore minor stylistic differences. Focus on clinical safety and accuracy.

Respond with a single score between 1 and 5 (5 being perfect).
Output ONLY THE NUMBER.`

var digitRegexp = regexp.MustCompile(`\d`)

// JudgeEvaluators the LLM-judged evaluators. `judge` may be nil: the evaluators then score 0 and say why.
func JudgeEvaluators(judge Judge) []Evaluator {
	return []Evaluator{
		NewToneEvaluator(judge),
		NewCorrectnessEvaluator(judge),
	}
}

type judgeEvaluator struct {
	key         string
	judge       Judge
	buildPrompt func(run *Run) string
}

func NewToneEvaluator(judge Judge) Evaluator {
	return &judgeEvaluator{
		key:   KeyToneAndEmpathy,
		judge: judge,
		buildPrompt: func(run *Run) string {
			return fmt.Sprintf(tonePrompt, run.Example.Input(), run.Result)
		},
	}
}

func NewCorrectnessEvaluator(judge Judge) Evaluator {
	return &judgeEvaluator{
		key:   KeyMedicalCorrectness,
		judge: judge,
		buildPrompt: func(run *Run) string {
			reference := "[" + strings.Join(run.Example.Outputs.Entities, ", ") + "]"
			return fmt.Sprintf(correctnessPrompt, run.Example.Input(), run.Result, reference)
		},
	}
}

func (j *judgeEvaluator) Key() string {
	return j.key
}

func (j *judgeEvaluator) Evaluate(ctx context.Context, run *Run) Feedback {
	if j.judge == nil {
		return Feedback{Key: j.key, Score: 0.0, Comment: skippedComment}
	}
	verdict, err := j.judge.Judge(ctx, j.buildPrompt(run))
	if err != nil {
		return Feedback{Key: j.key, Score: failedScore, Comment: err.Error()}
	}
	score, ok := ParseJudgeScore(verdict)
	if !ok {
		return Feedback{Key: j.key, Score: failedScore, Comment: "no score in: " + verdict}
	}
	return Feedback{Key: j.key, Score: score}
}

// ParseJudgeScore the first digit anywhere in the verdict, divided by 5.
func ParseJudgeScore(verdict string) (float64, bool) {
	digit := digitRegexp.FindString(verdict)
	if digit == "" {
		return 0, false
	}
	value, err := strconv.Atoi(digit)
	if err != nil {
		return 0, false
	}
	return float64(value) / 5.0, true
}
