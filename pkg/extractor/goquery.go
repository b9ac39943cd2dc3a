package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// goqueryMethod walks the content-bearing tags of the document directly.
// It keeps more of the page than readability (navigation aside, it takes
// headings, paragraphs, list items, preformatted blocks), which suits
// documentation-style pages readability tends to over-trim.
type goqueryMethod struct{}

func (goqueryMethod) Name() string { return "goquery" }

func (goqueryMethod) Extract(pageURL, html string) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Drop script/style subtrees before collecting text.
	doc.Find("script,style,noscript").Remove()

	var sb strings.Builder
	doc.Find("h1,h2,h3,h4,p,li,pre,blockquote").Each(func(_ int, s *goquery.Selection) {
		var text string
		if goquery.NodeName(s) == "pre" {
			text = strings.TrimSpace(s.Text())
		} else {
			text = normalizeText(s.Text())
		}
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	})

	return Article{
		Title: titleOf(html),
		Text:  strings.TrimSpace(sb.String()),
	}, nil
}
