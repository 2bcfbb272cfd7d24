package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTask = errors.New("unknown task")

// TaskType selects the prompt template.
type TaskType string

const (
	TaskAnalyzeText       = TaskType("analyze_text")
	TaskSimplifyReport    = TaskType("simplify_report")
	TaskAnalyzeImage      = TaskType("analyze_image")
	TaskAnalyzeNote       = TaskType("analyze_note")
	TaskSimplifyLabReport = TaskType("simplify_lab_report")
)

// DefaultImagePrompt the form value /api/analyze_image falls back to when the client sends no prompt at all.
const DefaultImagePrompt = "Describe the medical findings in this image."

const analyzeTextTemplate = `You are a helpful medical assistant.

Instructions:
- If the input is a clinical note, summarize it and extract key entities (Conditions, Medications).
- If the input is a specific question (e.g., "What is TSH?"), answer it directly and accurately in plain English.
- IMPORTANT: Output ONLY the final answer or summary. Do NOT output your thought process or internal reasoning.

Input Text:
%s`

const simplifyReportTemplate = "Please rewrite the following medical report in plain English so a patient can understand it. Explain any technical terms:\n\n%s"

const defaultImageAnalysisPrompt = "Describe the medical findings in this image. List key structures and any abnormalities seen. If you see an abnormality, provide its bounding box as [ymin, xmin, ymax, xmax] (0-100)."

const radiologistTemplate = `You are an expert Radiologist.
User Request: "%[1]s"

Analyze this medical image in detail:
1. **Modality & Region**: Identify the body part.
2. **Findings**: Report ANY suspicion of fracture or abnormality.

IMPORTANT: If you find an abnormality, provide its bounding box coordinates in the format [ymin, xmin, ymax, xmax] where values are 0-100.
Example output format:
"There is a fracture in the distal radius. [10, 20, 30, 40]"

Answer the user's specific question: "%[1]s"`

const defaultNotePrompt = "Transcribe the clinical note in this image and extract key entities (Conditions, Medications, Vitals)."

const defaultLabReportPrompt = "You are a helpful medical assistant. Read this medical report and explain it in plain English for a patient. Explain any technical terms. If any values are abnormal, highlight them."

const labReportTemplate = `You are a helpful medical assistant for a patient.
User Question: "%s"

Please analyze the uploaded lab report image directly:
1. List each test name, its result, and the reference range visible in the image.
2. Check if the result is inside that reference range.
3. If a value is outside the range, clearly mark it as "Abnormal" (High or Low).
4. Specific check:
   - Is Hemoglobin (HGB) below the range?
   - Is WBC high?

Answer the user's question by summarizing these findings in simple language.

FORMATTING INSTRUCTIONS:
- Use **BOLD** for test names and status (e.g. **Hemoglobin: High**).
- Use bullet points (-) for the list of results.
- Put each finding on a NEW line.
- Keep the explanation clear and spaced out.`

// PromptBuilder turns a task and the user's input into the prompt sent to the model. For text tasks `input` is the
// text to work on; for image tasks it's the optional user prompt.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func (p *PromptBuilder) BuildPrompt(task TaskType, input string) (string, error) {
	hasUserPrompt := strings.TrimSpace(input) != ""
	switch task {
	case TaskAnalyzeText:
		return fmt.Sprintf(analyzeTextTemplate, input), nil
	case TaskSimplifyReport:
		return fmt.Sprintf(simplifyReportTemplate, input), nil
	case TaskAnalyzeImage:
		if !hasUserPrompt {
			return defaultImageAnalysisPrompt, nil
		}
		return fmt.Sprintf(radiologistTemplate, input), nil
	case TaskAnalyzeNote:
		if !hasUserPrompt {
			return defaultNotePrompt, nil
		}
		return input, nil
	case TaskSimplifyLabReport:
		if !hasUserPrompt {
			return defaultLabReportPrompt, nil
		}
		return fmt.Sprintf(labReportTemplate, input), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTask, task)
}
