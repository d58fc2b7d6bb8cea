package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/usecase/toolindex"
	"github.com/urfave/cli/v3"
)

func indexCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, providerFlags(&cfg)...)
	flags = append(flags, catalogFlags(&cfg)...)

	newUseCase := func(ctx context.Context) (*toolindex.UseCase, error) {
		repo, err := cfg.newRepository(ctx)
		if err != nil {
			return nil, err
		}
		cat, err := cfg.newCatalog(ctx)
		if err != nil {
			return nil, err
		}
		return toolindex.New(repo, cat, cfg.newSelector()), nil
	}

	withSpinner := func(message string, fn func() (int, error)) (int, error) {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " " + message
		s.Start()
		defer s.Stop()
		return fn()
	}

	return &cli.Command{
		Name:  "index",
		Usage: "Maintain the tool description corpus",
		Commands: []*cli.Command{
			{
				Name:  "all",
				Usage: "Embed and upsert every catalog item",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					ctx = cfg.loggerContext(ctx)
					uc, err := newUseCase(ctx)
					if err != nil {
						return err
					}
					indexed, err := withSpinner("indexing tool corpus...", func() (int, error) {
						return uc.IndexAll(ctx)
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.Root().Writer, "indexed %d tools\n", indexed)
					return nil
				},
			},
			{
				Name:  "ensure",
				Usage: "Index only when the stored corpus is incomplete",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					ctx = cfg.loggerContext(ctx)
					uc, err := newUseCase(ctx)
					if err != nil {
						return err
					}
					indexed, err := uc.EnsureIndexed(ctx)
					if err != nil {
						return err
					}
					if indexed == 0 {
						fmt.Fprintln(c.Root().Writer, "corpus already complete")
					} else {
						fmt.Fprintf(c.Root().Writer, "indexed %d tools\n", indexed)
					}
					return nil
				},
			},
			{
				Name:  "reindex",
				Usage: "Drop all rows for the current model and rebuild",
				Flags: flags,
				Action: func(ctx context.Context, c *cli.Command) error {
					ctx = cfg.loggerContext(ctx)
					uc, err := newUseCase(ctx)
					if err != nil {
						return err
					}
					indexed, err := withSpinner("rebuilding tool corpus...", func() (int, error) {
						return uc.ReindexAll(ctx)
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.Root().Writer, "reindexed %d tools\n", indexed)
					return nil
				},
			},
			removeCommand(&cfg, flags),
		},
	}
}

func removeCommand(cfg *config, flags []cli.Flag) *cli.Command {
	var (
		toolID     string
		capability string
	)

	removeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "tool",
			Usage:       "Tool ID to remove across all models",
			Destination: &toolID,
		},
		&cli.StringFlag{
			Name:        "capability",
			Usage:       "Capability code whose tools are removed in bulk",
			Destination: &capability,
		},
	}
	removeFlags = append(removeFlags, flags...)

	return &cli.Command{
		Name:  "remove",
		Usage: "Remove tool embeddings by tool ID or capability code",
		Flags: removeFlags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			if (toolID == "") == (capability == "") {
				return goerr.New("exactly one of --tool or --capability is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			var deleted int
			if toolID != "" {
				deleted, err = repo.DeleteToolEmbeddings(ctx, toolID)
			} else {
				deleted, err = repo.DeleteToolEmbeddingsByCapability(ctx, capability)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "removed %d embeddings\n", deleted)
			return nil
		},
	}
}
