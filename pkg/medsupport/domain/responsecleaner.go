package domain

import (
	"regexp"
	"strings"
)

// ResponseCleaner MedGemma often "thinks out loud" before answering, so the raw output is trimmed down to the part
// meant for the user.
type ResponseCleaner interface {
	CleanResponse(response string) string
}

const strategizingCompleteMarker = "Strategizing complete. Proceeding with response generation."

var unusedTokenRegexp = regexp.MustCompile(`<unused\d+>`)

// Checked in order; the first one found wins.
var answerMarkers = []string{"Answer:", "Summary:"}

var reasoningLinePrefixes = []string{
	"the user wants",
	"i need to",
	"therefore, i",
	"okay, i will",
}

const leakedThoughtPrefix = "thought"

// ReasoningCleaner removes leaked chain-of-thought. It only knows the phrases MedGemma tends to produce with our
// templates: anything else slips through.
type ReasoningCleaner struct{}

func NewReasoningCleaner() *ReasoningCleaner {
	return &ReasoningCleaner{}
}

func (r *ReasoningCleaner) CleanResponse(response string) string {
	cleaned := unusedTokenRegexp.ReplaceAllString(response, "")
	if suffix, ok := suffixAfter(cleaned, strategizingCompleteMarker); ok {
		cleaned = suffix
	} else if suffix, ok := suffixAfterFirstMarker(cleaned, answerMarkers); ok {
		cleaned = suffix
	} else {
		cleaned = dropLeadingReasoningLines(cleaned)
	}
	// Some finetunes leak the "thought" channel name.
	if strings.HasPrefix(cleaned, leakedThoughtPrefix) {
		cleaned = strings.TrimSpace(strings.Replace(cleaned, leakedThoughtPrefix, "", 1))
	}
	return cleaned
}

func suffixAfter(text, marker string) (string, bool) {
	_, suffix, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	return strings.TrimSpace(suffix), true
}

func suffixAfterFirstMarker(text string, markers []string) (string, bool) {
	for _, marker := range markers {
		if suffix, ok := suffixAfter(text, marker); ok {
			return suffix, true
		}
	}
	return "", false
}

func dropLeadingReasoningLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !isReasoningLine(line) {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return ""
}

func isReasoningLine(line string) bool {
	normalized := strings.ToLower(strings.TrimSpace(line))
	if normalized == "" {
		return true
	}
	for _, prefix := range reasoningLinePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}
