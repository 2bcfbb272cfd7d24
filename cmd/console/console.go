package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/domain"
)

type service interface {
	AnalyzeText(ctx context.Context, text string) (string, error)
	SimplifyReport(ctx context.Context, text string) (string, error)
	AnalyzeImage(ctx context.Context, imageData []byte, userPrompt string) (*domain.ImageAnalysis, error)
	AnalyzeNoteMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
	SimplifyReportMultimodal(ctx context.Context, imageData []byte, userPrompt string) (string, error)
}

type urlFinder interface {
	FindURLs(str string) []string
	FindImageURL(str string) (string, bool)
}

type pageContentExtractor interface {
	ExtractPageContentFromURL(ctx context.Context, url string) (string, error)
}

var errMissingImage = errors.New("expected an image URL or a file path")

type console struct {
	service              service
	urlFinder            urlFinder
	pageContentExtractor pageContentExtractor
	readImage            func(ctx context.Context, location string) ([]byte, error)
}

func newConsole(service service, urlFinder urlFinder, pageContentExtractor pageContentExtractor) *console {
	return &console{
		service:              service,
		urlFinder:            urlFinder,
		pageContentExtractor: pageContentExtractor,
		readImage:            readImage,
	}
}

func (c *console) respond(ctx context.Context, line string) (string, error) {
	command, rest := splitCommand(line)
	switch command {
	case ":help":
		return help, nil
	case ":simplify":
		return c.simplify(ctx, rest)
	case ":image":
		return c.analyzeImage(ctx, rest)
	case ":note":
		return c.withImage(ctx, rest, c.service.AnalyzeNoteMultimodal)
	case ":lab":
		return c.withImage(ctx, rest, c.service.SimplifyReportMultimodal)
	}
	if imageURL, ok := c.urlFinder.FindImageURL(line); ok {
		prompt := strings.TrimSpace(strings.Replace(line, imageURL, "", 1))
		return c.describeImage(ctx, imageURL, prompt)
	}
	return c.service.AnalyzeText(ctx, line)
}

// A report published as a web page is simplified from the page's text.
func (c *console) simplify(ctx context.Context, text string) (string, error) {
	urls := c.urlFinder.FindURLs(text)
	if len(urls) == 0 {
		return c.service.SimplifyReport(ctx, text)
	}
	content, err := c.pageContentExtractor.ExtractPageContentFromURL(ctx, urls[0])
	if err != nil {
		return "", err
	}
	return c.service.SimplifyReport(ctx, content)
}

func (c *console) analyzeImage(ctx context.Context, args string) (string, error) {
	location, prompt := splitCommand(args)
	if location == "" {
		return "", errMissingImage
	}
	return c.describeImage(ctx, location, prompt)
}

func (c *console) describeImage(ctx context.Context, location, prompt string) (string, error) {
	imageData, err := c.readImage(ctx, location)
	if err != nil {
		return "", err
	}
	if prompt == "" {
		prompt = domain.DefaultImagePrompt
	}
	analysis, err := c.service.AnalyzeImage(ctx, imageData, prompt)
	if err != nil {
		return "", err
	}
	return analysis.Result, nil
}

func (c *console) withImage(
	ctx context.Context,
	args string,
	respond func(ctx context.Context, imageData []byte, userPrompt string) (string, error),
) (string, error) {
	location, prompt := splitCommand(args)
	if location == "" {
		return "", errMissingImage
	}
	imageData, err := c.readImage(ctx, location)
	if err != nil {
		return "", err
	}
	return respond(ctx, imageData, prompt)
}

func splitCommand(line string) (string, string) {
	head, tail, _ := strings.Cut(strings.TrimSpace(line), " ")
	return head, strings.TrimSpace(tail)
}

func readImage(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return common.ReadAllFromURL(ctx, location)
	}
	return os.ReadFile(location)
}
