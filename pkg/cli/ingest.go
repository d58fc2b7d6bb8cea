package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/seed"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg       config
		input     string
		policyDir string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a JSON event file, or '-' for stdin",
			Value:       "-",
			Destination: &input,
		},
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Directory of Rego policies that can force events through",
			Sources:     cli.EnvVars("BURROW_POLICY_DIR"),
			Destination: &policyDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for the fallback tier",
			Sources:     cli.EnvVars("BURROW_FALLBACK_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, providerFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Embed a domain event if warranted",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			event, err := readEvent(input)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			opts := []seed.Option{}
			if policyDir != "" {
				policy, err := seed.LoadPolicy(ctx, policyDir)
				if err != nil {
					return err
				}
				opts = append(opts, seed.WithPolicy(policy))
			}
			if storage, err := cfg.newStorage(ctx); err != nil {
				return err
			} else if storage != nil {
				opts = append(opts, seed.WithFallbackStorage(storage))
			}

			uc := seed.New(repo, cfg.newGenerator(), opts...)

			result, err := uc.Ingest(ctx, event)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			switch result.Outcome {
			case seed.OutcomeStored:
				if result.Archived {
					fmt.Fprintf(w, "stored (archived): %s\n", result.MemoryID)
				} else {
					fmt.Fprintf(w, "stored: %s\n", result.MemoryID)
				}
			case seed.OutcomeReused:
				fmt.Fprintf(w, "reused: %s\n", result.MemoryID)
			case seed.OutcomeSkipped:
				fmt.Fprintf(w, "skipped: %v\n", result.Reason)
			}
			return nil
		},
	}
}

func readEvent(path string) (*model.Event, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open event file", goerr.Value("path", path))
		}
		defer f.Close()
		r = f
	}

	var event model.Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return nil, goerr.Wrap(err, "failed to decode event JSON")
	}
	if event.ID == "" {
		event.ID = model.NewEventID()
	}
	if event.Type == "" {
		return nil, goerr.New("event type is required")
	}

	return &event, nil
}
