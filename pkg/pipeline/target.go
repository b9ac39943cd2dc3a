// Package pipeline drives one stage over a resolved set of pages: target
// resolution decides which pages an invocation touches, the runner invokes
// the stage's collaborator per page and records each outcome.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"sitedigest/models"
	"sitedigest/pkg/store"
)

// ErrUnknownTarget marks an explicit URL target that was never discovered.
// It is fatal to the invocation; nothing is processed or mutated.
var ErrUnknownTarget = errors.New("unknown target")

type targetKind int

const (
	targetDefault targetKind = iota // stage's default policy
	targetAll
	targetURL
)

// Target selects which pages a stage invocation acts on.
type Target struct {
	kind targetKind
	url  string
}

// ParseTarget interprets a --target flag value: empty means the stage's
// default policy, "all" means every eligible page, anything else is taken
// as a literal page URL.
func ParseTarget(value string) Target {
	switch value {
	case "":
		return Target{kind: targetDefault}
	case "all":
		return Target{kind: targetAll}
	default:
		return Target{kind: targetURL, url: value}
	}
}

// Resolve returns the pages this target selects for the stage, in discovery
// order. Resolution never mutates the store.
//
// Default policy: pages whose prerequisite stage succeeded and the given
// stage has not (for scrape: pages missing a successful scrape or whose
// sitemap lastmod is newer). "all": every page whose prerequisite stage
// succeeded, regardless of the stage's own completion. A URL: exactly that
// page, or ErrUnknownTarget; a missing prerequisite is allowed but flagged.
func (t Target) Resolve(st *store.Store, stage models.Stage, logger *slog.Logger) ([]models.Page, error) {
	switch t.kind {
	case targetDefault:
		return st.List(store.ReadyFor(stage))

	case targetAll:
		prereq := stage.Prerequisite()
		if prereq == "" {
			return st.List(store.All())
		}
		return st.List(store.Completed(prereq))

	case targetURL:
		page, err := st.Get(t.url)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s was never discovered", ErrUnknownTarget, t.url)
		}
		if err != nil {
			return nil, err
		}
		if prereq := stage.Prerequisite(); prereq != "" && !page.Completed(prereq) {
			logger.Warn("target page is missing its prerequisite stage output",
				"url", t.url, "stage", stage, "prerequisite", prereq)
		}
		return []models.Page{*page}, nil
	}

	return nil, fmt.Errorf("unresolvable target")
}
