package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitedigest/models"
	"sitedigest/pkg/store"
)

// ErrSkip wraps per-page errors that should count as a skip instead of a
// failure (a robots-disallowed page, for instance). Skipped pages get no
// failure record.
var ErrSkip = errors.New("page skipped")

// ProcessFunc is one stage's collaborator call for one page. It must be
// safe to invoke repeatedly for the same page and tag its output with the
// method or provider that produced it.
type ProcessFunc func(ctx context.Context, page models.Page) (store.StageOutput, error)

// Runner drives one stage over a resolved target set. A single page's
// failure never aborts the run; every resolved page is attempted and the
// aggregate record returned. Store write errors are fatal.
type Runner struct {
	Store   *store.Store
	Stage   models.Stage
	Timeout time.Duration // per-page bound on the collaborator call
	Workers int           // bounded parallel collaborator calls; <=1 is sequential
	Logger  *slog.Logger
}

type outcome struct {
	url string
	out store.StageOutput
	err error
}

// Run processes every page in order (concurrently when Workers > 1, in
// which case completion order is not deterministic). All store writes
// happen on the collecting goroutine, so no two writes race and the record
// is accumulated without lost updates.
func (r *Runner) Run(ctx context.Context, pages []models.Page, process ProcessFunc) (*models.Record, error) {
	record := &models.Record{
		RunID:     uuid.NewString(),
		Stage:     r.Stage,
		Attempted: len(pages),
	}
	logger := r.Logger.With("run_id", record.RunID, "stage", r.Stage)
	logger.Info("starting stage run", "pages", len(pages))

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.Page)
	results := make(chan outcome)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				out, err := r.invoke(ctx, page, process)
				results <- outcome{url: page.URL, out: out, err: err}
			}
		}()
	}

	go func() {
		for _, page := range pages {
			jobs <- page
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// Keep draining after a fatal store error so workers can finish; no
	// further writes happen once fatal is set.
	var fatal error
	for res := range results {
		switch {
		case fatal != nil:

		case res.err == nil:
			if err := r.Store.RecordSuccess(res.url, res.out, time.Now()); err != nil {
				fatal = err
				continue
			}
			record.Succeeded++
			logger.Debug("page succeeded", "url", res.url)

		case errors.Is(res.err, ErrSkip):
			record.Skipped++
			logger.Info("page skipped", "url", res.url, "reason", res.err)

		default:
			if err := r.Store.RecordFailure(res.url, r.Stage, res.err.Error(), time.Now()); err != nil {
				fatal = err
				continue
			}
			record.Failed++
			record.Errors = append(record.Errors, models.PageError{URL: res.url, Message: res.err.Error()})
			logger.Warn("page failed", "url", res.url, "error", res.err)
		}
	}

	if fatal != nil {
		return record, fmt.Errorf("stage run aborted: %w", fatal)
	}

	logger.Info("stage run finished",
		"attempted", record.Attempted,
		"succeeded", record.Succeeded,
		"failed", record.Failed,
		"skipped", record.Skipped,
	)
	return record, nil
}

// invoke runs the collaborator under the per-page timeout. A timeout is an
// ordinary per-page failure, recorded and non-fatal to the run.
func (r *Runner) invoke(ctx context.Context, page models.Page, process ProcessFunc) (store.StageOutput, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return process(ctx, page)
}
