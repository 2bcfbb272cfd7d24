package web

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kgeyst.com/medsupport/pkg/common"
)

type PageContentExtractor struct{}

func NewPageContentExtractor() *PageContentExtractor {
	return &PageContentExtractor{}
}

func (p *PageContentExtractor) ExtractPageContentFromURL(ctx context.Context, url string) (string, error) {
	page, err := common.ReadAllFromURL(ctx, url)
	if err != nil {
		return "", err
	}
	return p.ExtractPageContent(page)
}

// ExtractPageContent keeps the title, the paragraphs and the table rows (online lab reports are usually tables).
func (p *PageContentExtractor) ExtractPageContent(page []byte) (string, error) {
	document, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	var parts []string
	if title := normalizeSpace(document.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	document.Find("p, tr").Each(func(_ int, selection *goquery.Selection) {
		var text string
		if goquery.NodeName(selection) == "tr" {
			cells := selection.Find("th, td").Map(func(_ int, cell *goquery.Selection) string {
				return normalizeSpace(cell.Text())
			})
			text = strings.Join(cells, " | ")
		} else {
			text = normalizeSpace(selection.Text())
		}
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n"), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
