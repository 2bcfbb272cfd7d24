package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanResponse_AnswerMarker(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "Take it with food.", cleaner.CleanResponse("The user asks about metformin.\nAnswer:   Take it with food.  "))
}

func TestCleanResponse_SummaryMarker(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "Diabetic patient on Metformin.", cleaner.CleanResponse("Let me look at the note.\nSummary:\nDiabetic patient on Metformin."))
}

func TestCleanResponse_AnswerWinsOverSummary(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "X", cleaner.CleanResponse("Summary: draft\nAnswer: X"))
}

func TestCleanResponse_OnlyFirstAnswerMarkerIsCut(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "first Answer: second", cleaner.CleanResponse("Answer: first Answer: second"))
}

func TestCleanResponse_StrategizingMarkerWinsOverAnswer(t *testing.T) {
	cleaner := NewReasoningCleaner()
	raw := "Checklist:\n1. Answer: pending\nStrategizing complete. Proceeding with response generation.\n\nThe X-ray is normal."

	assert.Equal(t, "The X-ray is normal.", cleaner.CleanResponse(raw))
}

func TestCleanResponse_LeadingReasoningLines(t *testing.T) {
	cleaner := NewReasoningCleaner()
	raw := "The user wants a summary of the note.\n" +
		"I need to extract the medications.\n" +
		"Therefore, I will list them.\n" +
		"\n" +
		"Patient has hypertension.\nMedications: Lisinopril."

	assert.Equal(t, "Patient has hypertension.\nMedications: Lisinopril.", cleaner.CleanResponse(raw))
}

func TestCleanResponse_ReasoningDetectionIsCaseInsensitiveAndIndentTolerant(t *testing.T) {
	cleaner := NewReasoningCleaner()
	raw := "   OKAY, I WILL explain.\n\tthe USER wants plain English.\nTSH is a hormone."

	assert.Equal(t, "TSH is a hormone.", cleaner.CleanResponse(raw))
}

func TestCleanResponse_ReasoningLinesAfterContentAreKept(t *testing.T) {
	cleaner := NewReasoningCleaner()
	raw := "Findings: none.\nI need to stress this is not a diagnosis."

	assert.Equal(t, raw, cleaner.CleanResponse(raw))
}

func TestCleanResponse_OnlyReasoning(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "", cleaner.CleanResponse("The user wants everything.\n\nI need to think."))
}

func TestCleanResponse_UnusedTokensStripped(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "The lungs are clear.", cleaner.CleanResponse("<unused94>The lungs <unused95>are clear.<unused1>"))
}

func TestCleanResponse_NoMarkersPassThrough(t *testing.T) {
	cleaner := NewReasoningCleaner()
	raw := "Hemoglobin is within range.\n\n- WBC: normal\n- Platelets: normal"

	assert.Equal(t, raw, cleaner.CleanResponse(raw))
}

func TestCleanResponse_LeakedThoughtPrefix(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "The fracture is in the distal radius.", cleaner.CleanResponse("<unused94>thought\nThe fracture is in the distal radius."))
}

func TestCleanResponse_ThoughtPrefixAfterAnswerMarker(t *testing.T) {
	cleaner := NewReasoningCleaner()

	assert.Equal(t, "no acute findings", cleaner.CleanResponse("Answer: thought no acute findings"))
}

func TestCleanResponse_Idempotent(t *testing.T) {
	cleaner := NewReasoningCleaner()
	inputs := []string{
		"The user wants a summary.\nI need to be brief.\nOkay, I will.\nBlood pressure is high.",
		"Plain answer without any markers.",
		"<unused94>thought\nThe lungs are clear.",
		"Answer: The lungs are clear.",
		"\n\n  Trailing and leading whitespace  \n",
	}
	for _, input := range inputs {
		once := cleaner.CleanResponse(input)
		twice := cleaner.CleanResponse(once)
		assert.Equal(t, once, twice, "input: %q", input)
	}
}
