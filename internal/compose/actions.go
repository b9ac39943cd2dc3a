// Package compose implements the compose command: rendering all summarized
// pages into the llms.txt artifact.
package compose

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"sitedigest/internal/common"
	"sitedigest/pkg/composer"
	"sitedigest/pkg/store"
)

func Action(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: sitedigest compose <db> <output_path>", 2)
	}
	dbPath := c.Args().Get(0)
	outputPath := c.Args().Get(1)

	logger := common.Logger(c)

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	// One query gives a consistent snapshot: no page mutates mid-read.
	pages, err := st.List(store.Summarized())
	if err != nil {
		return err
	}

	written, err := composer.WriteFile(outputPath, pages)
	if err != nil {
		return err
	}

	logger.Info("composed digest", "pages", written, "output", outputPath)
	fmt.Printf("Composed %d pages to %s\n", written, outputPath)
	return nil
}
