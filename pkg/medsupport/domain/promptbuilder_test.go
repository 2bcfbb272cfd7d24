package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_AnalyzeText(t *testing.T) {
	prompt, err := NewPromptBuilder().BuildPrompt(TaskAnalyzeText, "What is TSH?")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are a helpful medical assistant."))
	assert.Contains(t, prompt, "Do NOT output your thought process")
	assert.True(t, strings.HasSuffix(prompt, "Input Text:\nWhat is TSH?"))
}

func TestBuildPrompt_SimplifyReport(t *testing.T) {
	prompt, err := NewPromptBuilder().BuildPrompt(TaskSimplifyReport, "Mild cardiomegaly.")
	require.NoError(t, err)

	assert.Equal(t, "Please rewrite the following medical report in plain English so a patient can understand it. Explain any technical terms:\n\nMild cardiomegaly.", prompt)
}

func TestBuildPrompt_TextIsNotInterpretedAsFormat(t *testing.T) {
	prompt, err := NewPromptBuilder().BuildPrompt(TaskSimplifyReport, "A1C is 6.5%s %d")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(prompt, "A1C is 6.5%s %d"))
}

func TestBuildPrompt_AnalyzeImageDefault(t *testing.T) {
	for _, userPrompt := range []string{"", "   \n"} {
		prompt, err := NewPromptBuilder().BuildPrompt(TaskAnalyzeImage, userPrompt)
		require.NoError(t, err)

		assert.Equal(t, defaultImageAnalysisPrompt, prompt)
		assert.Contains(t, prompt, "[ymin, xmin, ymax, xmax] (0-100)")
	}
}

func TestBuildPrompt_AnalyzeImageUserDirected(t *testing.T) {
	prompt, err := NewPromptBuilder().BuildPrompt(TaskAnalyzeImage, "Check this hand X-ray for fractures.")
	require.NoError(t, err)

	assert.Contains(t, prompt, "You are an expert Radiologist.")
	assert.Equal(t, 2, strings.Count(prompt, `"Check this hand X-ray for fractures."`))
	assert.Contains(t, prompt, "**Modality & Region**")
	assert.Contains(t, prompt, "[10, 20, 30, 40]")
}

func TestBuildPrompt_DefaultImagePromptIsUserDirected(t *testing.T) {
	prompt, err := NewPromptBuilder().BuildPrompt(TaskAnalyzeImage, DefaultImagePrompt)
	require.NoError(t, err)

	assert.Contains(t, prompt, "You are an expert Radiologist.")
}

func TestBuildPrompt_AnalyzeNote(t *testing.T) {
	builder := NewPromptBuilder()

	prompt, err := builder.BuildPrompt(TaskAnalyzeNote, "")
	require.NoError(t, err)
	assert.Equal(t, defaultNotePrompt, prompt)

	prompt, err = builder.BuildPrompt(TaskAnalyzeNote, "Transcribe this prescription exactly.")
	require.NoError(t, err)
	assert.Equal(t, "Transcribe this prescription exactly.", prompt)
}

func TestBuildPrompt_SimplifyLabReport(t *testing.T) {
	builder := NewPromptBuilder()

	prompt, err := builder.BuildPrompt(TaskSimplifyLabReport, " ")
	require.NoError(t, err)
	assert.Equal(t, defaultLabReportPrompt, prompt)

	prompt, err = builder.BuildPrompt(TaskSimplifyLabReport, "Should I be worried?")
	require.NoError(t, err)
	assert.Contains(t, prompt, `User Question: "Should I be worried?"`)
	assert.Contains(t, prompt, "FORMATTING INSTRUCTIONS:")
	assert.Contains(t, prompt, "**Hemoglobin: High**")
}

func TestBuildPrompt_UnknownTask(t *testing.T) {
	_, err := NewPromptBuilder().BuildPrompt(TaskType("diagnose_everything"), "x")

	assert.ErrorIs(t, err, ErrUnknownTask)
}
