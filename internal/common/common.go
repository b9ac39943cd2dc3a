// Package common holds helpers shared by the CLI command actions.
package common

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"sitedigest/models"
)

// LevelTrace sits below slog's debug level; it maps verbosity 4+.
const LevelTrace = slog.LevelDebug - 4

// Logger builds the command logger from the global verbosity flag:
// 0 error, 1 warn, 2 info (default), 3 debug, 4+ trace.
func Logger(c *cli.Context) *slog.Logger {
	var level slog.Level
	switch c.Int("verbose") {
	case 0:
		level = slog.LevelError
	case 1:
		level = slog.LevelWarn
	case 2:
		level = slog.LevelInfo
	case 3:
		level = slog.LevelDebug
	default:
		level = LevelTrace
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// PrintRunSummary reports one stage invocation's outcome on stdout. It is
// printed even when some pages failed; per-page errors follow the counts.
func PrintRunSummary(record *models.Record) {
	fmt.Printf("%s: %d attempted, %d succeeded, %d failed, %d skipped\n",
		record.Stage, record.Attempted, record.Succeeded, record.Failed, record.Skipped)
	for _, pageErr := range record.Errors {
		fmt.Printf("  failed %s: %s\n", pageErr.URL, pageErr.Message)
	}
}
