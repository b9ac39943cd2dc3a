// Package store persists discovered pages and their per-stage state in a
// single SQLite file. It is the pipeline's only source of truth.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sitedigest/models"
)

// ErrNotFound is returned when a page is not present in the store.
var ErrNotFound = errors.New("page not found")

type Store struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database at the given path.
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps row updates strictly serialized.
	sqlDB.SetMaxOpenConns(1)
	return sqlDB, nil
}

// Open opens or creates the store at the given path and ensures the schema.
func Open(path string) (*Store, error) {
	sqlDB, err := openDB(path)
	if err != nil {
		return nil, err
	}

	st := &Store{
		DB:   sqlDB,
		path: path,
	}

	if err := st.ensureSchemaExists(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return st, nil
}

// ensureSchemaExists checks if the schema exists and initializes it if not.
func (st *Store) ensureSchemaExists() error {
	var tableName string
	err := st.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='pages'").Scan(&tableName)

	if errors.Is(err, sql.ErrNoRows) {
		return st.InitSchema()
	}
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (st *Store) Path() string {
	return st.path
}

// InitSchema initializes the database schema.
func (st *Store) InitSchema() error {
	_, err := st.Exec(schema)
	return err
}

// Discovered is one URL collected from a sitemap, with its optional lastmod.
type Discovered struct {
	URL     string
	Lastmod *time.Time
}

// UpsertDiscovered inserts pages for URLs not yet present, in the given
// order, with empty stage state. Existing pages keep all of their stage
// data; only the sitemap lastmod is refreshed. Returns the number of pages
// newly added.
func (st *Store) UpsertDiscovered(entries []Discovered) (int, error) {
	tx, err := st.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	added := 0
	for _, e := range entries {
		res, err := tx.Exec(
			"INSERT OR IGNORE INTO pages (url, discovered_at, lastmod) VALUES (?, ?, ?)",
			e.URL, now, unixOrNil(e.Lastmod),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", e.URL, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		if n > 0 {
			added++
			continue
		}
		if e.Lastmod != nil {
			if _, err := tx.Exec("UPDATE pages SET lastmod = ? WHERE url = ?", e.Lastmod.Unix(), e.URL); err != nil {
				return 0, fmt.Errorf("failed to refresh lastmod for %s: %w", e.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit discovery: %w", err)
	}
	return added, nil
}

const pageColumns = `url, discovered_at, lastmod,
	body, scraped_at, scrape_error, scrape_error_at,
	title, text, text_method, language, parsed_at, parse_error, parse_error_at,
	summary, summary_provider, summary_prompt, summarized_at, summarize_error, summarize_error_at`

// Get returns the page for the given URL, or ErrNotFound.
func (st *Store) Get(url string) (*models.Page, error) {
	row := st.QueryRow("SELECT "+pageColumns+" FROM pages WHERE url = ?", url)
	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", url, err)
	}
	return page, nil
}

// List returns pages matching the filter, in discovery order.
func (st *Store) List(f Filter) ([]models.Page, error) {
	query := "SELECT " + pageColumns + " FROM pages WHERE " + f.where + " ORDER BY rowid"
	rows, err := st.Query(query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}
	return pages, nil
}

// StageOutput is the successful result of one stage for one page. Each
// concrete type carries exactly the columns its stage owns.
type StageOutput interface {
	Stage() models.Stage
}

// ScrapeOutput is the fetched page body.
type ScrapeOutput struct {
	Body string
}

func (ScrapeOutput) Stage() models.Stage { return models.StageScrape }

// ParseOutput is the extracted title and text, tagged with the method that
// produced them.
type ParseOutput struct {
	Title    string
	Text     string
	Method   string
	Language string
}

func (ParseOutput) Stage() models.Stage { return models.StageParse }

// SummaryOutput is the generated summary, tagged with the provider URI and
// prompt template digest that produced it.
type SummaryOutput struct {
	Summary  string
	Provider string
	Prompt   string
}

func (SummaryOutput) Stage() models.Stage { return models.StageSummarize }

// RecordSuccess atomically replaces the stage's output columns and clears
// its error columns. The page must already exist; a missing URL is an
// invariant violation surfaced as ErrNotFound.
func (st *Store) RecordSuccess(url string, out StageOutput, at time.Time) error {
	var res sql.Result
	var err error

	switch o := out.(type) {
	case ScrapeOutput:
		res, err = st.Exec(`
			UPDATE pages SET body = ?, scraped_at = ?, scrape_error = NULL, scrape_error_at = NULL
			WHERE url = ?
		`, o.Body, at.Unix(), url)
	case ParseOutput:
		res, err = st.Exec(`
			UPDATE pages SET title = ?, text = ?, text_method = ?, language = ?,
				parsed_at = ?, parse_error = NULL, parse_error_at = NULL
			WHERE url = ?
		`, o.Title, o.Text, o.Method, o.Language, at.Unix(), url)
	case SummaryOutput:
		res, err = st.Exec(`
			UPDATE pages SET summary = ?, summary_provider = ?, summary_prompt = ?,
				summarized_at = ?, summarize_error = NULL, summarize_error_at = NULL
			WHERE url = ?
		`, o.Summary, o.Provider, o.Prompt, at.Unix(), url)
	default:
		return fmt.Errorf("unsupported stage output %T", out)
	}

	if err != nil {
		return fmt.Errorf("failed to record %s success for %s: %w", out.Stage(), url, err)
	}
	return st.requireRow(res, url)
}

// RecordFailure records the stage's last error without touching any output
// column. The page must already exist.
func (st *Store) RecordFailure(url string, stage models.Stage, message string, at time.Time) error {
	var query string
	switch stage {
	case models.StageScrape:
		query = "UPDATE pages SET scrape_error = ?, scrape_error_at = ? WHERE url = ?"
	case models.StageParse:
		query = "UPDATE pages SET parse_error = ?, parse_error_at = ? WHERE url = ?"
	case models.StageSummarize:
		query = "UPDATE pages SET summarize_error = ?, summarize_error_at = ? WHERE url = ?"
	default:
		return fmt.Errorf("unsupported stage %q", stage)
	}

	res, err := st.Exec(query, message, at.Unix(), url)
	if err != nil {
		return fmt.Errorf("failed to record %s failure for %s: %w", stage, url, err)
	}
	return st.requireRow(res, url)
}

func (st *Store) requireRow(res sql.Result, url string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return nil
}

// StageCounts summarizes how far the store has progressed.
type StageCounts struct {
	Discovered int
	Scraped    int
	Parsed     int
	Summarized int
	Errors     map[models.Stage]int
}

// Counts returns per-stage completion and error counts.
func (st *Store) Counts() (*StageCounts, error) {
	counts := &StageCounts{Errors: make(map[models.Stage]int)}
	var scrapeErrs, parseErrs, summarizeErrs int

	err := st.QueryRow(`
		SELECT COUNT(*),
			COUNT(scraped_at), COUNT(parsed_at), COUNT(summarized_at),
			COUNT(scrape_error), COUNT(parse_error), COUNT(summarize_error)
		FROM pages
	`).Scan(
		&counts.Discovered,
		&counts.Scraped, &counts.Parsed, &counts.Summarized,
		&scrapeErrs, &parseErrs, &summarizeErrs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	counts.Errors[models.StageScrape] = scrapeErrs
	counts.Errors[models.StageParse] = parseErrs
	counts.Errors[models.StageSummarize] = summarizeErrs
	return counts, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*models.Page, error) {
	var (
		page         models.Page
		discoveredAt int64
		lastmod      sql.NullInt64

		body      sql.NullString
		scrapedAt sql.NullInt64
		scrapeErr sql.NullString
		scrapeAt  sql.NullInt64

		title      sql.NullString
		text       sql.NullString
		textMethod sql.NullString
		language   sql.NullString
		parsedAt   sql.NullInt64
		parseErr   sql.NullString
		parseAt    sql.NullInt64

		summary         sql.NullString
		summaryProvider sql.NullString
		summaryPrompt   sql.NullString
		summarizedAt    sql.NullInt64
		summarizeErr    sql.NullString
		summarizeAt     sql.NullInt64
	)

	err := row.Scan(
		&page.URL, &discoveredAt, &lastmod,
		&body, &scrapedAt, &scrapeErr, &scrapeAt,
		&title, &text, &textMethod, &language, &parsedAt, &parseErr, &parseAt,
		&summary, &summaryProvider, &summaryPrompt, &summarizedAt, &summarizeErr, &summarizeAt,
	)
	if err != nil {
		return nil, err
	}

	page.DiscoveredAt = time.Unix(discoveredAt, 0)
	page.Lastmod = timeOrNil(lastmod)

	page.Body = body.String
	page.ScrapedAt = timeOrNil(scrapedAt)
	page.ScrapeErr = stageErrOrNil(scrapeErr, scrapeAt)

	page.Title = title.String
	page.Text = text.String
	page.TextMethod = textMethod.String
	page.Language = language.String
	page.ParsedAt = timeOrNil(parsedAt)
	page.ParseErr = stageErrOrNil(parseErr, parseAt)

	page.Summary = summary.String
	page.SummaryProvider = summaryProvider.String
	page.SummaryPrompt = summaryPrompt.String
	page.SummarizedAt = timeOrNil(summarizedAt)
	page.SummarizeErr = stageErrOrNil(summarizeErr, summarizeAt)

	return &page, nil
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

func stageErrOrNil(msg sql.NullString, at sql.NullInt64) *models.StageError {
	if !msg.Valid {
		return nil
	}
	e := &models.StageError{Message: msg.String}
	if at.Valid {
		e.At = time.Unix(at.Int64, 0)
	}
	return e
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
