// sitedigest builds an llms.txt digest of a website. Pages discovered from
// the site's sitemap move through four stages — scrape, parse, summarize,
// compose — with per-page state persisted in a SQLite store so every stage
// can be re-run incrementally.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"sitedigest/internal/compose"
	"sitedigest/internal/parse"
	"sitedigest/internal/scrape"
	"sitedigest/internal/status"
	"sitedigest/internal/summarize"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "sitedigest",
		Usage: "build an llms.txt digest of a website from its sitemap",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Value:   2,
				Usage:   "verbosity: 0 error, 1 warn, 2 info, 3 debug, 4 trace",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file with fetch defaults",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "scrape",
				Usage:     "discover pages from a sitemap and fetch their bodies",
				ArgsUsage: "<sitemap_url> <db>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "delay",
						Aliases: []string{"d"},
						Value:   1000,
						Usage:   "delay between requests in milliseconds",
					},
					&cli.IntFlag{
						Name:    "concurrency",
						Aliases: []string{"c"},
						Value:   1,
						Usage:   "number of concurrent requests",
					},
					&cli.IntFlag{
						Name:  "timeout",
						Value: 30,
						Usage: "per-request timeout in seconds",
					},
					&cli.StringFlag{
						Name:  "user-agent",
						Value: "sitedigest",
						Usage: "User-Agent header sent with requests",
					},
					&cli.BoolFlag{
						Name:  "no-robots",
						Usage: "ignore robots.txt",
					},
				},
				Action: scrape.Action,
			},
			{
				Name:      "parse",
				Usage:     "extract title and text from scraped page bodies",
				ArgsUsage: "<db>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text-by",
						Value: "readability",
						Usage: "text extraction method: readability or goquery",
					},
					&cli.StringFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "pages to parse: a URL, \"all\", or unset for unparsed pages",
					},
					&cli.StringFlag{
						Name:    "selector",
						Aliases: []string{"s"},
						Usage:   "CSS selector limiting the HTML subset extracted from",
					},
				},
				Action: parse.Action,
			},
			{
				Name:      "summarize",
				Usage:     "summarize parsed pages with an LLM provider",
				ArgsUsage: "<db> <provider_uri>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "pages to summarize: a URL, \"all\", or unset for unsummarized pages",
					},
					&cli.StringFlag{
						Name:    "prompt-file",
						Aliases: []string{"p"},
						Usage:   "path to a prompt template file ({url} and {text} placeholders)",
					},
					&cli.IntFlag{
						Name:    "rpm",
						Aliases: []string{"r"},
						Usage:   "rate limit in requests per minute (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "timeout",
						Value: 120,
						Usage: "per-page timeout in seconds",
					},
				},
				Action: summarize.Action,
			},
			{
				Name:      "compose",
				Usage:     "render all summarized pages into the output file",
				ArgsUsage: "<db> <output_path>",
				Action:    compose.Action,
			},
			{
				Name:      "status",
				Usage:     "show per-stage progress for a store",
				ArgsUsage: "<db>",
				Action:    status.Action,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
