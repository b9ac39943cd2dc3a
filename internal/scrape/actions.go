// Package scrape implements the scrape command: sitemap ingestion followed
// by a fetch pass over every page that needs one.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"sitedigest/internal/common"
	"sitedigest/models"
	"sitedigest/pkg/fetcher"
	"sitedigest/pkg/pipeline"
	"sitedigest/pkg/sitemap"
	"sitedigest/pkg/store"
)

func Action(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: sitedigest scrape <sitemap_url> <db>", 2)
	}
	sitemapURL := c.Args().Get(0)
	dbPath := c.Args().Get(1)

	logger := common.Logger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	client := fetcher.NewClient(
		fetcher.WithUserAgent(stringOr(c, "user-agent", cfg.UserAgent)),
		fetcher.WithDelay(time.Duration(intOr(c, "delay", cfg.DelayMS))*time.Millisecond),
		fetcher.WithTimeout(timeoutOr(c, cfg)),
		fetcher.WithRobots(!c.Bool("no-robots")),
	)

	entries, err := sitemap.Collect(c.Context, client, sitemapURL, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	discovered := make([]store.Discovered, len(entries))
	for i, e := range entries {
		discovered[i] = store.Discovered{URL: e.Loc, Lastmod: e.Lastmod}
	}
	added, err := st.UpsertDiscovered(discovered)
	if err != nil {
		return err
	}
	logger.Info("sitemap ingested", "urls", len(entries), "new", added)

	pages, err := pipeline.ParseTarget("").Resolve(st, models.StageScrape, logger)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Store:   st,
		Stage:   models.StageScrape,
		Timeout: timeoutOr(c, cfg),
		Workers: intOr(c, "concurrency", cfg.Workers),
		Logger:  logger,
	}

	record, err := runner.Run(c.Context, pages, func(ctx context.Context, page models.Page) (store.StageOutput, error) {
		body, err := client.Get(ctx, page.URL)
		if errors.Is(err, fetcher.ErrRobotsDisallowed) {
			return nil, fmt.Errorf("%w: %v", pipeline.ErrSkip, err)
		}
		if err != nil {
			return nil, err
		}
		return store.ScrapeOutput{Body: body}, nil
	})
	if err != nil {
		return err
	}

	common.PrintRunSummary(record)
	return nil
}

// stringOr prefers the flag when set, then the config value, then the
// flag's default.
func stringOr(c *cli.Context, flag, fromConfig string) string {
	if c.IsSet(flag) || fromConfig == "" {
		return c.String(flag)
	}
	return fromConfig
}

func intOr(c *cli.Context, flag string, fromConfig int) int {
	if c.IsSet(flag) || fromConfig == 0 {
		return c.Int(flag)
	}
	return fromConfig
}

func timeoutOr(c *cli.Context, cfg *models.Config) time.Duration {
	if c.IsSet("timeout") || cfg.TimeoutSeconds == 0 {
		return time.Duration(c.Int("timeout")) * time.Second
	}
	return cfg.Timeout()
}
