package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgeyst.com/medsupport/pkg/medsupport/domain"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/web"
)

type fakeService struct {
	calls []string
}

func (f *fakeService) AnalyzeText(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, "text|"+text)
	return "summary", nil
}

func (f *fakeService) SimplifyReport(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, "simplify|"+text)
	return "plain words", nil
}

func (f *fakeService) AnalyzeImage(_ context.Context, imageData []byte, userPrompt string) (*domain.ImageAnalysis, error) {
	f.calls = append(f.calls, "image|"+string(imageData)+"|"+userPrompt)
	return &domain.ImageAnalysis{Result: "findings"}, nil
}

func (f *fakeService) AnalyzeNoteMultimodal(_ context.Context, imageData []byte, userPrompt string) (string, error) {
	f.calls = append(f.calls, "note|"+string(imageData)+"|"+userPrompt)
	return "transcribed", nil
}

func (f *fakeService) SimplifyReportMultimodal(_ context.Context, imageData []byte, userPrompt string) (string, error) {
	f.calls = append(f.calls, "lab|"+string(imageData)+"|"+userPrompt)
	return "explained", nil
}

type fakeExtractor struct{}

func (f *fakeExtractor) ExtractPageContentFromURL(_ context.Context, url string) (string, error) {
	return "page of " + url, nil
}

func newTestConsole(service *fakeService) *console {
	c := newConsole(service, web.NewURLFinder(), &fakeExtractor{})
	c.readImage = func(_ context.Context, location string) ([]byte, error) {
		if location == "missing.png" {
			return nil, errors.New("no such file")
		}
		return []byte("<" + location + ">"), nil
	}
	return c
}

func TestConsole_Respond(t *testing.T) {
	service := &fakeService{}
	c := newTestConsole(service)

	for line, expected := range map[string]string{
		"Patient has fever and cough.":                        "summary",
		":simplify Hemoglobin 10.1 g/dL (low)":                "plain words",
		"What is this? https://example.com/scans/chest.png":   "findings",
		":note prescription.jpg":                              "transcribed",
		":lab https://example.com/lab.jpg Is my iron low?":    "explained",
		":simplify see https://example.com/reports/42 please": "plain words",
		":image scan.png":                                     "findings",
	} {
		response, err := c.respond(context.Background(), line)
		require.NoError(t, err, line)
		assert.Equal(t, expected, response, line)
	}

	assert.ElementsMatch(t, []string{
		"text|Patient has fever and cough.",
		"simplify|Hemoglobin 10.1 g/dL (low)",
		"image|<https://example.com/scans/chest.png>|What is this?",
		"note|<prescription.jpg>|",
		"lab|<https://example.com/lab.jpg>|Is my iron low?",
		"simplify|page of https://example.com/reports/42",
		"image|<scan.png>|" + domain.DefaultImagePrompt,
	}, service.calls)
}

func TestConsole_Errors(t *testing.T) {
	service := &fakeService{}
	c := newTestConsole(service)

	_, err := c.respond(context.Background(), ":note")
	assert.ErrorIs(t, err, errMissingImage)
	_, err = c.respond(context.Background(), ":lab missing.png")
	assert.EqualError(t, err, "no such file")

	assert.Empty(t, service.calls)
}

func TestSplitCommand(t *testing.T) {
	command, rest := splitCommand("  :note   photo.jpg  what dose?  ")

	assert.Equal(t, ":note", command)
	assert.Equal(t, "photo.jpg  what dose?", rest)
}
