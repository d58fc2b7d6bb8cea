package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/adapter"
)

func TestGeminiEmbed(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	vec, err := client.Embed(ctx, "Hello, what is the capital of France?")
	gt.NoError(t, err)
	gt.True(t, len(vec) > 0)
	t.Logf("dimension: %d", len(vec))
}
