// Package sitemap collects page URLs from a sitemap document, recursing
// into nested sitemap indexes.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// ErrParse marks a malformed sitemap document. It aborts the whole scrape
// invocation: no page state has been touched at that point.
var ErrParse = errors.New("malformed sitemap")

// maxSitemaps caps recursion through nested indexes so a pathological
// sitemap tree cannot run unbounded.
const maxSitemaps = 1000

// Getter fetches a document body by URL. *fetcher.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (string, error)
}

// Entry is one page URL collected from a sitemap.
type Entry struct {
	Loc     string
	Lastmod *time.Time
}

type xmlEntry struct {
	Loc     string `xml:"loc"`
	Lastmod string `xml:"lastmod"`
}

type urlset struct {
	URLs []xmlEntry `xml:"url"`
}

type sitemapindex struct {
	Sitemaps []xmlEntry `xml:"sitemap"`
}

// Collect fetches and parses the sitemap at sitemapURL, recursing into any
// nested sitemaps. Duplicate URLs across nested sitemaps collapse to their
// first occurrence, so the result order is deterministic (document order,
// depth-last for indexes). An empty sitemap yields an empty slice.
func Collect(ctx context.Context, client Getter, sitemapURL string, logger *slog.Logger) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]int)     // page URL -> index in entries
	visited := make(map[string]bool) // sitemap URL -> already parsed
	pending := []string{sitemapURL}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		if visited[current] {
			logger.Warn("sitemap references an already visited sitemap, skipping", "url", current)
			continue
		}
		visited[current] = true
		if len(visited) > maxSitemaps {
			return nil, fmt.Errorf("%w: more than %d nested sitemaps", ErrParse, maxSitemaps)
		}

		body, err := client.Get(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch sitemap %s: %w", current, err)
		}

		urls, sitemaps, err := parse(body)
		if err != nil {
			return nil, fmt.Errorf("%w (%s): %v", ErrParse, current, err)
		}

		for _, sm := range sitemaps {
			loc, ok := absoluteLoc(sm.Loc, current, logger)
			if ok {
				pending = append(pending, loc)
			}
		}

		for _, u := range urls {
			loc, ok := absoluteLoc(u.Loc, current, logger)
			if !ok {
				continue
			}
			lastmod := parseLastmod(u.Lastmod)
			if i, dup := seen[loc]; dup {
				// Keep the first occurrence, but prefer a known lastmod.
				if entries[i].Lastmod == nil {
					entries[i].Lastmod = lastmod
				}
				continue
			}
			seen[loc] = len(entries)
			entries = append(entries, Entry{Loc: loc, Lastmod: lastmod})
		}
	}

	return entries, nil
}

// parse decodes a sitemap document as either a urlset or a sitemapindex.
func parse(body string) (urls, sitemaps []xmlEntry, err error) {
	decoder := xml.NewDecoder(strings.NewReader(body))

	root, err := rootElement(decoder)
	if err != nil {
		return nil, nil, err
	}

	switch root.Name.Local {
	case "urlset":
		var set urlset
		if err := decoder.DecodeElement(&set, root); err != nil {
			return nil, nil, err
		}
		return set.URLs, nil, nil
	case "sitemapindex":
		var index sitemapindex
		if err := decoder.DecodeElement(&index, root); err != nil {
			return nil, nil, err
		}
		return nil, index.Sitemaps, nil
	default:
		return nil, nil, fmt.Errorf("unexpected root element <%s>", root.Name.Local)
	}
}

// rootElement advances the decoder to the document's first start element.
func rootElement(decoder *xml.Decoder) (*xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

// absoluteLoc trims and validates a <loc> value, resolving it against the
// sitemap it came from. Invalid locs are skipped with a warning rather than
// failing the whole document.
func absoluteLoc(loc, base string, logger *slog.Logger) (string, bool) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", false
	}

	u, err := url.Parse(loc)
	if err != nil {
		logger.Warn("skipping invalid sitemap loc", "loc", loc, "error", err)
		return "", false
	}
	if !u.IsAbs() {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		u = baseURL.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		logger.Warn("skipping non-http sitemap loc", "loc", loc)
		return "", false
	}
	return u.String(), true
}

// lastmod values appear both as bare dates and full timestamps in the wild.
var lastmodFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
}

func parseLastmod(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, format := range lastmodFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}
	// An unparseable lastmod means "treat the page as modified".
	return nil
}
