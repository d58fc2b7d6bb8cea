package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/service/catalog"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values. It doubles as the Settings collaborator
// resolved by the embedding generator on every call.
type config struct {
	// Repository
	project  string
	database string

	// Fallback storage
	bucket string

	// Embedding backend
	embeddingModel    string
	embeddingProvider string

	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	ollamaHost     string
	ollamaModel    string

	// Catalog sources
	catalogPath string
	mcpConfig   string

	// Usage statistics
	bigqueryDataset string
	bigqueryTable   string

	logLevel string
}

var _ interfaces.Settings = (*config)(nil)

// EmbeddingTarget implements interfaces.Settings
func (cfg *config) EmbeddingTarget() model.EmbeddingTarget {
	return model.EmbeddingTarget{
		Model:    cfg.embeddingModel,
		Provider: cfg.embeddingProvider,
	}
}

// loggerContext installs the configured logger into the context
func (cfg *config) loggerContext(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("BURROW_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// providerFlags returns flags for embedding backend configuration
func providerFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("BURROW_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (gemini, openai, ollama)",
			Value:       "gemini",
			Sources:     cli.EnvVars("BURROW_EMBEDDING_PROVIDER"),
			Destination: &cfg.embeddingProvider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Vertex AI (defaults to --project)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "ollama-host",
			Usage:       "Ollama server URL",
			Sources:     cli.EnvVars("OLLAMA_HOST"),
			Destination: &cfg.ollamaHost,
		},
		&cli.StringFlag{
			Name:        "ollama-model",
			Usage:       "Ollama embedding model",
			Value:       "nomic-embed-text",
			Sources:     cli.EnvVars("BURROW_OLLAMA_MODEL"),
			Destination: &cfg.ollamaModel,
		},
	}
}

// catalogFlags returns flags for tool catalog sources
func catalogFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalog",
			Usage:       "Path to a YAML tool catalog",
			Sources:     cli.EnvVars("BURROW_CATALOG"),
			Destination: &cfg.catalogPath,
		},
		&cli.StringFlag{
			Name:        "mcp-config",
			Usage:       "Path to an MCP server configuration file",
			Sources:     cli.EnvVars("BURROW_MCP_CONFIG"),
			Destination: &cfg.mcpConfig,
		},
	}
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// providerFactory dispatches an embedding target to its adapter
func (cfg *config) providerFactory() embedding.Factory {
	return func(ctx context.Context, target model.EmbeddingTarget) (embedding.Provider, error) {
		switch target.Provider {
		case embedding.ProviderGemini:
			project := cfg.geminiProject
			if project == "" {
				project = cfg.project
			}
			if project == "" {
				return nil, goerr.New("gemini-project is required")
			}
			client, err := adapter.NewGemini(ctx, project, cfg.geminiLocation,
				adapter.WithGeminiModel(target.Model),
			)
			if err != nil {
				return nil, err
			}
			return embedding.NewGeminiProvider(client), nil

		case embedding.ProviderOpenAI:
			client, err := adapter.NewOpenAI(cfg.openaiAPIKey,
				adapter.WithOpenAIModel(target.Model),
			)
			if err != nil {
				return nil, err
			}
			return embedding.NewOpenAIProvider(client), nil

		case embedding.ProviderOllama:
			client, err := adapter.NewOllama(cfg.ollamaHost,
				adapter.WithOllamaModel(target.Model),
			)
			if err != nil {
				return nil, err
			}
			return embedding.NewOllamaProvider(client), nil

		default:
			return nil, goerr.New("unknown embedding provider",
				goerr.Value("provider", target.Provider),
			)
		}
	}
}

// newGenerator builds the ingestion-path generator
func (cfg *config) newGenerator() *embedding.Generator {
	return embedding.NewGenerator(cfg, cfg.providerFactory())
}

// newSelector builds the corpus-path backend selector
func (cfg *config) newSelector() *embedding.Selector {
	opts := []embedding.SelectorOption{}
	if local, err := adapter.NewOllama(cfg.ollamaHost, adapter.WithOllamaModel(cfg.ollamaModel)); err == nil {
		opts = append(opts, embedding.WithLocal(local))
	}
	return embedding.NewSelector(cfg, cfg.providerFactory(), opts...)
}

// newCatalog assembles the configured catalog sources
func (cfg *config) newCatalog(ctx context.Context) (interfaces.Catalog, error) {
	var sources []interfaces.Catalog

	if cfg.catalogPath != "" {
		static, err := catalog.LoadStatic(cfg.catalogPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, static)
	}

	if cfg.mcpConfig != "" {
		mcpCatalog, err := catalog.LoadMCP(ctx, cfg.mcpConfig)
		if err != nil {
			return nil, err
		}
		if mcpCatalog != nil {
			sources = append(sources, mcpCatalog)
		}
	}

	if len(sources) == 0 {
		return nil, goerr.New("no catalog source configured: set --catalog or --mcp-config")
	}
	return catalog.NewMulti(sources...), nil
}

// newStorage creates the fallback storage adapter, nil when no bucket is set
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}
	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newBigQuery creates the usage statistics client
func (cfg *config) newBigQuery(ctx context.Context) (adapter.BigQuery, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}

	opts := []adapter.BigQueryOption{}
	if cfg.bigqueryDataset != "" && cfg.bigqueryTable != "" {
		opts = append(opts, adapter.WithBigQueryTable(cfg.bigqueryDataset, cfg.bigqueryTable))
	}
	return adapter.NewBigQuery(ctx, cfg.project, opts...)
}
