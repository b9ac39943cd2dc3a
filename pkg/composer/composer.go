// Package composer renders summarized pages into the final llms.txt
// artifact.
package composer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sitedigest/models"
)

// Compose writes one section per page with a non-empty summary, in the
// given order, and returns how many pages were written. Pages without a
// summary are passed over silently.
func Compose(w io.Writer, pages []models.Page) (int, error) {
	written := 0
	for _, page := range pages {
		if page.Summary == "" {
			continue
		}

		heading := page.URL
		if page.Title != "" {
			heading = fmt.Sprintf("[%s](%s)", page.Title, page.URL)
		}

		if _, err := fmt.Fprintf(w, "## %s\n%s\n\n", heading, page.Summary); err != nil {
			return written, fmt.Errorf("failed to write section for %s: %w", page.URL, err)
		}
		written++
	}
	return written, nil
}

// WriteFile composes into a temporary file and renames it over the output
// path, so a crash mid-compose never leaves a truncated artifact.
func WriteFile(path string, pages []models.Page) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	written, err := Compose(tmp, pages)
	if err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return written, fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return written, nil
}
