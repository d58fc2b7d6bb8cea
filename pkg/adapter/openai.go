package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is the interface for the OpenAI embedding backend
type OpenAI interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

type OpenAIOption func(*OpenAIClient)

// WithOpenAIModel overrides the default embedding model
func WithOpenAIModel(model string) OpenAIOption {
	return func(c *OpenAIClient) {
		c.model = model
	}
}

// NewOpenAI creates a new OpenAI embedding client
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, goerr.New("openai api key is empty")
	}

	c := &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  string(openai.SmallEmbedding3),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embeddings", goerr.V("model", c.model))
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, goerr.New("empty embedding response", goerr.V("model", c.model))
	}

	return resp.Data[0].Embedding, nil
}
