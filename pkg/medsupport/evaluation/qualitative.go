package evaluation

import (
	"context"
	"regexp"
	"strings"
)

// QualitativeCheck the result of checking an answer against expected keywords, forbidden keywords and required
// section headers.
type QualitativeCheck struct {
	MissingKeywords  []string
	NegatedForbidden []string
	FoundForbidden   []string
	MissingSections  []string
}

func (q *QualitativeCheck) Passed() bool {
	return len(q.MissingKeywords) == 0 && len(q.FoundForbidden) == 0 && len(q.MissingSections) == 0
}

// CheckQualitatively keywords are matched case-insensitively, sections case-sensitively. A forbidden keyword
// preceded by a negation within 20 characters ("no pneumonia", "negative for edema") is not a hallucination.
func CheckQualitatively(result string, outputs ExampleOutputs) *QualitativeCheck {
	check := &QualitativeCheck{}
	resultLower := strings.ToLower(result)
	for _, keyword := range outputs.ExpectedKeywords {
		if !strings.Contains(resultLower, strings.ToLower(keyword)) {
			check.MissingKeywords = append(check.MissingKeywords, keyword)
		}
	}
	for _, keyword := range outputs.ForbiddenKeywords {
		keywordLower := strings.ToLower(keyword)
		if !strings.Contains(resultLower, keywordLower) {
			continue
		}
		if negationRegexp(keywordLower).MatchString(resultLower) {
			check.NegatedForbidden = append(check.NegatedForbidden, keyword)
		} else {
			check.FoundForbidden = append(check.FoundForbidden, keyword)
		}
	}
	for _, section := range outputs.RequiredSections {
		if !strings.Contains(result, section) {
			check.MissingSections = append(check.MissingSections, section)
		}
	}
	return check
}

func negationRegexp(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(no|without|negative for|absent|free of)[\s\w]{0,20}` + regexp.QuoteMeta(keyword))
}

type qualitativeCheckEvaluator struct{}

func (q *qualitativeCheckEvaluator) Key() string {
	return KeyQualitativeCheck
}

func (q *qualitativeCheckEvaluator) Evaluate(_ context.Context, run *Run) Feedback {
	check := CheckQualitatively(run.Result, run.Example.Outputs)
	var comments []string
	if len(check.MissingKeywords) > 0 {
		comments = append(comments, "missing keywords: "+strings.Join(check.MissingKeywords, ", "))
	}
	if len(check.FoundForbidden) > 0 {
		comments = append(comments, "forbidden keywords: "+strings.Join(check.FoundForbidden, ", "))
	}
	if len(check.NegatedForbidden) > 0 {
		comments = append(comments, "negated: "+strings.Join(check.NegatedForbidden, ", "))
	}
	if len(check.MissingSections) > 0 {
		comments = append(comments, "missing sections: "+strings.Join(check.MissingSections, ", "))
	}
	score := 0.0
	if check.Passed() {
		score = 1.0
	}
	return Feedback{Key: q.Key(), Score: score, Comment: strings.Join(comments, "; ")}
}
