// Package summarize implements the summarize command: generating a digest
// summary for parsed pages through an LLM provider.
package summarize

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"sitedigest/internal/common"
	"sitedigest/models"
	"sitedigest/pkg/pipeline"
	"sitedigest/pkg/store"
	"sitedigest/pkg/summarizer"
)

func Action(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: sitedigest summarize <db> <provider_uri>", 2)
	}
	dbPath := c.Args().Get(0)
	providerURI := c.Args().Get(1)

	logger := common.Logger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	provider, err := summarizer.ParseProviderURI(providerURI)
	if err != nil {
		return err
	}

	template := ""
	promptFile := c.String("prompt-file")
	if promptFile == "" {
		promptFile = cfg.PromptFile
	}
	if promptFile != "" {
		data, err := os.ReadFile(promptFile)
		if err != nil {
			return fmt.Errorf("failed to read prompt file: %w", err)
		}
		template = string(data)
	}

	summ := summarizer.New(provider, template, c.Int("rpm"))

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := pipeline.ParseTarget(c.String("target")).Resolve(st, models.StageSummarize, logger)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Store:   st,
		Stage:   models.StageSummarize,
		Timeout: time.Duration(c.Int("timeout")) * time.Second,
		Logger:  logger,
	}

	record, err := runner.Run(c.Context, pages, func(ctx context.Context, page models.Page) (store.StageOutput, error) {
		if page.Text == "" {
			logger.Warn("summarizing a page with no parsed text", "url", page.URL)
		}
		summary, err := summ.Summarize(ctx, page.URL, page.Text)
		if err != nil {
			return nil, fmt.Errorf("summarization failed: %w", err)
		}
		return store.SummaryOutput{
			Summary:  summary,
			Provider: providerURI,
			Prompt:   summ.TemplateDigest(),
		}, nil
	})
	if err != nil {
		return err
	}

	common.PrintRunSummary(record)
	return nil
}
