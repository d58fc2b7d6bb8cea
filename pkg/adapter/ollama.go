package adapter

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	ollama "github.com/ollama/ollama/api"
)

// Ollama is the interface for a locally hosted embedding backend
type Ollama interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string

	// Alive probes the local server with a short timeout. It returns nil
	// only when the server responds.
	Alive(ctx context.Context) error
}

type OllamaClient struct {
	client       *ollama.Client
	model        string
	probeTimeout time.Duration
}

type OllamaOption func(*OllamaClient)

// WithOllamaModel overrides the default embedding model
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) {
		c.model = model
	}
}

// WithOllamaProbeTimeout overrides the availability probe timeout
func WithOllamaProbeTimeout(d time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.probeTimeout = d
	}
}

// NewOllama creates a new Ollama embedding client. Host defaults to the local
// server when empty.
func NewOllama(host string, opts ...OllamaOption) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ollama host", goerr.V("host", host))
	}

	c := &OllamaClient{
		client:       ollama.NewClient(u, &http.Client{Timeout: 60 * time.Second}),
		model:        "nomic-embed-text",
		probeTimeout: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *OllamaClient) Model() string {
	return c.model
}

func (c *OllamaClient) Alive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	if err := c.client.Heartbeat(ctx); err != nil {
		return goerr.Wrap(err, "ollama server not reachable")
	}
	return nil
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embed(ctx, &ollama.EmbedRequest{
		Model: c.model,
		Input: text,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", c.model))
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, goerr.New("empty embedding response", goerr.V("model", c.model))
	}

	return resp.Embeddings[0], nil
}
