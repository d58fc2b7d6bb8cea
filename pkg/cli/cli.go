package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "burrow",
		Usage: "Embedding lifecycle and semantic retrieval engine",
		Commands: []*cli.Command{
			ingestCommand(),
			searchCommand(),
			indexCommand(),
			migrateCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
