package cli

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/service/ragserv"
	"github.com/m-mizutani/burrow/pkg/usecase/search"
	"github.com/m-mizutani/burrow/pkg/usecase/toolindex"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg       config
		skipIndex bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "skip-index",
			Usage:       "Do not check tool corpus completeness at startup",
			Sources:     cli.EnvVars("BURROW_SKIP_INDEX"),
			Destination: &skipIndex,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, providerFlags(&cfg)...)
	flags = append(flags, catalogFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve memory and tool search over MCP stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)
			logger := logging.From(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			selector := cfg.newSelector()

			if !skipIndex {
				cat, err := cfg.newCatalog(ctx)
				if err != nil {
					logger.Warn("no catalog available, serving existing corpus", "error", err)
				} else {
					indexed, err := toolindex.New(repo, cat, selector).EnsureIndexed(ctx)
					if err != nil {
						return err
					}
					if indexed > 0 {
						logger.Info("filled tool corpus gap", "indexed", indexed)
					}
				}
			}

			searchUC := search.New(repo, cfg.newGenerator(), selector)

			logger.Info("starting MCP server on stdio")
			return ragserv.New(searchUC).Run(ctx)
		},
	}
}
