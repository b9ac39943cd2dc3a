// Package status implements the status command: a per-stage progress
// readout for a store.
package status

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"sitedigest/models"
	"sitedigest/pkg/store"
)

func Action(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sitedigest status <db>", 2)
	}

	st, err := store.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := st.Counts()
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %8s %8s\n", "stage", "done", "errors")
	fmt.Printf("%-12s %8d %8s\n", "discovered", counts.Discovered, "-")
	fmt.Printf("%-12s %8d %8d\n", "scraped", counts.Scraped, counts.Errors[models.StageScrape])
	fmt.Printf("%-12s %8d %8d\n", "parsed", counts.Parsed, counts.Errors[models.StageParse])
	fmt.Printf("%-12s %8d %8d\n", "summarized", counts.Summarized, counts.Errors[models.StageSummarize])
	return nil
}
