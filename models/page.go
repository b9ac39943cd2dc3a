// Package models defines the data structures shared across the pipeline.
package models

import "time"

// Stage identifies one unit of per-page processing.
type Stage string

const (
	StageScrape    Stage = "scrape"
	StageParse     Stage = "parse"
	StageSummarize Stage = "summarize"
)

// Prerequisite returns the stage whose output this stage consumes,
// or "" for scrape which has none.
func (s Stage) Prerequisite() Stage {
	switch s {
	case StageParse:
		return StageScrape
	case StageSummarize:
		return StageParse
	}
	return ""
}

// StageError is the last recorded failure of one stage for one page.
// It lives next to, never instead of, the stage's last successful output.
type StageError struct {
	Message string
	At      time.Time
}

// Page represents a single discovered URL and everything each stage has
// produced for it so far. A nil *time.Time means the stage never succeeded.
type Page struct {
	URL          string
	DiscoveredAt time.Time
	Lastmod      *time.Time // sitemap <lastmod>, if the sitemap carried one

	// scrape
	Body      string
	ScrapedAt *time.Time
	ScrapeErr *StageError

	// parse
	Title      string
	Text       string
	TextMethod string // extractor method that produced Title/Text
	Language   string // detected language of Text, ISO 639-1
	ParsedAt   *time.Time
	ParseErr   *StageError

	// summarize
	Summary         string
	SummaryProvider string // provider URI that produced Summary
	SummaryPrompt   string // digest of the prompt template used
	SummarizedAt    *time.Time
	SummarizeErr    *StageError
}

// Scraped reports whether the scrape stage ever succeeded for this page.
func (p *Page) Scraped() bool { return p.ScrapedAt != nil }

// Parsed reports whether the parse stage ever succeeded for this page.
func (p *Page) Parsed() bool { return p.ParsedAt != nil }

// Summarized reports whether the summarize stage ever succeeded for this page.
func (p *Page) Summarized() bool { return p.SummarizedAt != nil }

// Completed reports whether the given stage ever succeeded for this page.
func (p *Page) Completed(stage Stage) bool {
	switch stage {
	case StageScrape:
		return p.Scraped()
	case StageParse:
		return p.Parsed()
	case StageSummarize:
		return p.Summarized()
	}
	return false
}

// PageError pairs a page URL with the error one run recorded for it.
type PageError struct {
	URL     string
	Message string
}

// Record aggregates the outcome of one stage invocation. It is surfaced to
// the caller and the log, never persisted.
type Record struct {
	RunID     string
	Stage     Stage
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Errors    []PageError
}
