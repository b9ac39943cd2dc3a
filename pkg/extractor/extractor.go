// Package extractor turns raw HTML into an article (title + plain text)
// using a named extraction method resolved at the CLI boundary.
package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Article is the extracted content of one page.
type Article struct {
	Title string
	Text  string
}

// Method is one named extraction algorithm.
type Method interface {
	Name() string
	Extract(pageURL, html string) (Article, error)
}

const DefaultMethod = "readability"

var methods = map[string]Method{
	"readability": readabilityMethod{},
	"goquery":     goqueryMethod{},
}

// Lookup resolves a method by name. Unknown names list the known ones.
func Lookup(name string) (Method, error) {
	if name == "" {
		name = DefaultMethod
	}
	method, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown extraction method %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return method, nil
}

// Names returns the registered method names, sorted.
func Names() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompileSelector validates a CSS selector for Scope. Compilation happens
// once at the CLI boundary so an invalid selector fails the invocation
// before any page is touched.
func CompileSelector(selector string) (goquery.Matcher, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid CSS selector %q: %w", selector, err)
	}
	return sel, nil
}

// Scope reduces the HTML to the subtrees matching the selector, joined in
// document order. No match yields an empty document.
func Scope(html string, matcher goquery.Matcher) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var parts []string
	doc.FindMatcher(matcher).Each(func(_ int, s *goquery.Selection) {
		if part, err := goquery.OuterHtml(s); err == nil {
			parts = append(parts, part)
		}
	})
	return strings.Join(parts, "\n"), nil
}

// titleOf extracts the document title, falling back to the first h1 or h2.
func titleOf(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, tag := range []string{"title", "h1", "h2"} {
		text := normalizeText(doc.Find(tag).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// normalizeText collapses inner whitespace runs and trims the result.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
