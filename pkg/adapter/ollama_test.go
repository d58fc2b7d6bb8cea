package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/adapter"
)

func TestOllamaEmbed(t *testing.T) {
	baseURL := os.Getenv("TEST_OLLAMA_URL")
	if baseURL == "" {
		t.Skip("TEST_OLLAMA_URL is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewOllama(baseURL)
	gt.NoError(t, err)

	gt.NoError(t, client.Alive(ctx))

	vec, err := client.Embed(ctx, "a small brown fox")
	gt.NoError(t, err)
	gt.True(t, len(vec) > 0)
}
