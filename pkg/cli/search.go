package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/usecase/search"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg         config
		query       string
		limit       int64
		minScore    float64
		toolCorpus  bool
		interactive bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Free text query",
			Destination: &query,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of results",
			Value:       5,
			Destination: &limit,
		},
		&cli.FloatFlag{
			Name:        "min-score",
			Usage:       "Minimum cosine similarity in [0, 1]",
			Value:       0.5,
			Destination: &minScore,
		},
		&cli.BoolFlag{
			Name:        "tools",
			Aliases:     []string{"t"},
			Usage:       "Search the tool corpus instead of memories",
			Destination: &toolCorpus,
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "Read queries from an interactive prompt",
			Destination: &interactive,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, providerFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Similarity search over memories or the tool corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			uc := search.New(repo, cfg.newGenerator(), cfg.newSelector())
			w := c.Root().Writer

			runOne := func(q string) {
				input := &search.Input{
					Query:    q,
					TopK:     int(limit),
					MinScore: minScore,
				}
				if toolCorpus {
					printTools(w, uc.Tools(ctx, input))
				} else {
					printMemories(w, uc.Memories(ctx, input))
				}
			}

			if !interactive {
				if query == "" {
					return goerr.New("query is required (or use --interactive)")
				}
				runOne(query)
				return nil
			}

			rl, err := readline.New("search> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open prompt")
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read query")
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				runOne(line)
			}
		},
	}
}

func printMemories(w io.Writer, result *search.Memories) {
	fmt.Fprintf(w, "status: %s\n", result.Status)
	for i, m := range result.Memories {
		fmt.Fprintf(w, "%2d. [%.3f] (%s/%s) %s\n", i+1, m.Score, m.SeedType, m.Scope, m.Content)
	}
}

func printTools(w io.Writer, result *search.Tools) {
	fmt.Fprintf(w, "status: %s\n", result.Status)
	for i, tool := range result.Tools {
		fmt.Fprintf(w, "%2d. [%.3f] %s: %s\n", i+1, tool.Score, tool.DisplayName, tool.Description)
	}
}
