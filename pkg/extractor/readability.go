package extractor

import (
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// readabilityMethod extracts the main article content with go-readability.
type readabilityMethod struct{}

func (readabilityMethod) Name() string { return "readability" }

func (readabilityMethod) Extract(pageURL, html string) (Article, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return Article{}, fmt.Errorf("readability extraction failed: %w", err)
	}

	title := normalizeText(article.Title)
	if title == "" {
		title = titleOf(html)
	}

	return Article{
		Title: title,
		Text:  strings.TrimSpace(article.TextContent),
	}, nil
}
