package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/migration"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	var (
		cfg          config
		fromModel    string
		fromProvider string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "from-model",
			Usage:       "Embedding model the platform is moving away from",
			Required:    true,
			Destination: &fromModel,
		},
		&cli.StringFlag{
			Name:        "from-provider",
			Usage:       "Provider of the previous embedding model",
			Sources:     cli.EnvVars("BURROW_FROM_PROVIDER"),
			Value:       "gemini",
			Destination: &fromProvider,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset holding the embedding usage table",
			Sources:     cli.EnvVars("BURROW_BIGQUERY_DATASET"),
			Destination: &cfg.bigqueryDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table holding per-model usage rows",
			Sources:     cli.EnvVars("BURROW_BIGQUERY_TABLE"),
			Destination: &cfg.bigqueryTable,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, providerFlags(&cfg)...)

	return &cli.Command{
		Name:  "migrate",
		Usage: "Assess whether embeddings need re-generation for a model switch",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			stats, err := cfg.newBigQuery(ctx)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			previous := model.EmbeddingTarget{
				Model:    fromModel,
				Provider: fromProvider,
			}
			assessment := migration.New(stats, repo).Assess(ctx, previous, cfg.EmbeddingTarget())

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(assessment)
		},
	}
}
