// Package parse implements the parse command: extracting title and text
// from scraped page bodies with a named extraction method.
package parse

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/urfave/cli/v2"

	"sitedigest/internal/common"
	"sitedigest/models"
	"sitedigest/pkg/extractor"
	"sitedigest/pkg/pipeline"
	"sitedigest/pkg/store"
)

func Action(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: sitedigest parse <db>", 2)
	}
	dbPath := c.Args().Get(0)

	logger := common.Logger(c)

	method, err := extractor.Lookup(c.String("text-by"))
	if err != nil {
		return err
	}

	var matcher goquery.Matcher
	if selector := c.String("selector"); selector != "" {
		matcher, err = extractor.CompileSelector(selector)
		if err != nil {
			return err
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := pipeline.ParseTarget(c.String("target")).Resolve(st, models.StageParse, logger)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Store:  st,
		Stage:  models.StageParse,
		Logger: logger,
	}

	record, err := runner.Run(c.Context, pages, func(_ context.Context, page models.Page) (store.StageOutput, error) {
		html := page.Body
		if matcher != nil {
			html, err = extractor.Scope(html, matcher)
			if err != nil {
				return nil, err
			}
		}

		article, err := method.Extract(page.URL, html)
		if err != nil {
			return nil, fmt.Errorf("extraction failed: %w", err)
		}

		return store.ParseOutput{
			Title:    article.Title,
			Text:     article.Text,
			Method:   method.Name(),
			Language: extractor.DetectLanguage(article.Text),
		}, nil
	})
	if err != nil {
		return err
	}

	common.PrintRunSummary(record)
	return nil
}
