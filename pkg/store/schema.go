package store

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Pages table: one row per discovered URL. Each stage owns a group of
-- columns: output fields + method tag + success timestamp, and a separate
-- error message + error timestamp. Success clears the error columns;
-- failure never touches the output columns.
CREATE TABLE IF NOT EXISTS pages (
    url TEXT PRIMARY KEY,
    discovered_at INTEGER NOT NULL,
    lastmod INTEGER,

    -- scrape
    body TEXT,
    scraped_at INTEGER,
    scrape_error TEXT,
    scrape_error_at INTEGER,

    -- parse
    title TEXT,
    text TEXT,
    text_method TEXT,
    language TEXT,
    parsed_at INTEGER,
    parse_error TEXT,
    parse_error_at INTEGER,

    -- summarize
    summary TEXT,
    summary_provider TEXT,
    summary_prompt TEXT,
    summarized_at INTEGER,
    summarize_error TEXT,
    summarize_error_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_pages_scraped ON pages(scraped_at);
CREATE INDEX IF NOT EXISTS idx_pages_parsed ON pages(parsed_at);
CREATE INDEX IF NOT EXISTS idx_pages_summarized ON pages(summarized_at);
`
