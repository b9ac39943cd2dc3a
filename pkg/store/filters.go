package store

import (
	"sitedigest/models"
)

// Filter selects a subset of pages for List. Filters are pure values; they
// never mutate the store.
type Filter struct {
	where string
	args  []any
}

// All matches every page.
func All() Filter {
	return Filter{where: "1=1"}
}

// One matches exactly the given URL.
func One(url string) Filter {
	return Filter{where: "url = ?", args: []any{url}}
}

// MissingOutput matches pages for which the stage never succeeded.
func MissingOutput(stage models.Stage) Filter {
	return Filter{where: successColumn(stage) + " IS NULL"}
}

// Completed matches pages for which the stage succeeded at least once.
func Completed(stage models.Stage) Filter {
	return Filter{where: successColumn(stage) + " IS NOT NULL"}
}

// ReadyFor matches pages whose prerequisite stage succeeded but the given
// stage has not. For scrape it is equivalent to NeedsScrape.
func ReadyFor(stage models.Stage) Filter {
	prereq := stage.Prerequisite()
	if prereq == "" {
		return NeedsScrape()
	}
	return Filter{where: successColumn(prereq) + " IS NOT NULL AND " + successColumn(stage) + " IS NULL"}
}

// NeedsScrape matches pages with no successful scrape, plus pages whose
// sitemap lastmod is newer than their last successful scrape.
func NeedsScrape() Filter {
	return Filter{where: "scraped_at IS NULL OR (lastmod IS NOT NULL AND lastmod > scraped_at)"}
}

// Summarized matches pages carrying a non-empty summary, the input set for
// compose.
func Summarized() Filter {
	return Filter{where: "summarized_at IS NOT NULL AND summary <> ''"}
}

func successColumn(stage models.Stage) string {
	switch stage {
	case models.StageScrape:
		return "scraped_at"
	case models.StageParse:
		return "parsed_at"
	case models.StageSummarize:
		return "summarized_at"
	}
	return "NULL"
}
