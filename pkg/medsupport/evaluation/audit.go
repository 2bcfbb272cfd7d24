package evaluation

import (
	"context"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

type AuditResult struct {
	TraceID     string  `json:"traceId"`
	Task        string  `json:"task"`
	Tone        float64 `json:"tone"`
	Correctness float64 `json:"correctness"`
}

// Audit grades answers the service has already given (see Trace) with the judge evaluators. There is no reference
// answer for live traffic, so correctness is judged without expected entities.
func Audit(ctx context.Context, traces []*domain.Trace, judge Judge, logger common.Logger) ([]AuditResult, error) {
	if len(traces) == 0 {
		common.Logf(logger, "no traces found to evaluate")
		return nil, nil
	}
	tone := NewToneEvaluator(judge)
	correctness := NewCorrectnessEvaluator(judge)
	results := make([]AuditResult, 0, len(traces))
	for _, trace := range traces {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		run := &Run{
			Example: &Example{Inputs: ExampleInputs{Text: trace.Input}},
			Result:  trace.Result,
			Error:   trace.Error,
		}
		result := AuditResult{
			TraceID:     trace.ID,
			Task:        string(trace.Task),
			Tone:        tone.Evaluate(ctx, run).Score,
			Correctness: correctness.Evaluate(ctx, run).Score,
		}
		common.Logf(logger, "Run %s: Tone=%.2f, Correctness=%.2f", shortID(trace.ID), result.Tone, result.Correctness)
		results = append(results, result)
	}
	return results, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
