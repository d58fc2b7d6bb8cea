package embedding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
)

type mockOllama struct {
	aliveErr error
}

func (m *mockOllama) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.5}, nil
}

func (m *mockOllama) Model() string {
	return "nomic-embed-text"
}

func (m *mockOllama) Alive(ctx context.Context) error {
	return m.aliveErr
}

func recordingFactory(fail map[string]error) (embedding.Factory, *[]string) {
	var requested []string
	factory := func(ctx context.Context, target model.EmbeddingTarget) (embedding.Provider, error) {
		requested = append(requested, target.String())
		if err := fail[target.String()]; err != nil {
			return nil, err
		}
		return &mockProvider{target: target, vec: []float32{0.1}}, nil
	}
	return factory, &requested
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	remote := model.EmbeddingTarget{Provider: "openai", Model: "text-embedding-3-small"}

	t.Run("reachable local server wins", func(t *testing.T) {
		factory, requested := recordingFactory(nil)
		sel := embedding.NewSelector(&mockSettings{target: remote}, factory,
			embedding.WithLocal(&mockOllama{}),
		)

		provider, err := sel.Select(ctx)
		gt.NoError(t, err)
		gt.Equal(t, "ollama/nomic-embed-text", provider.Target().String())
		gt.Equal(t, 0, len(*requested))
	})

	t.Run("unreachable local falls through to settings", func(t *testing.T) {
		factory, _ := recordingFactory(nil)
		sel := embedding.NewSelector(&mockSettings{target: remote}, factory,
			embedding.WithLocal(&mockOllama{aliveErr: goerr.New("connection refused")}),
		)

		provider, err := sel.Select(ctx)
		gt.NoError(t, err)
		gt.Equal(t, remote, provider.Target())
	})

	t.Run("unusable remote falls through to default", func(t *testing.T) {
		factory, requested := recordingFactory(map[string]error{
			remote.String(): goerr.New("no api key"),
		})
		sel := embedding.NewSelector(&mockSettings{target: remote}, factory)

		provider, err := sel.Select(ctx)
		gt.NoError(t, err)
		gt.Equal(t, embedding.DefaultTarget, provider.Target())
		gt.Equal(t, 2, len(*requested))
	})

	t.Run("no settings target goes straight to default", func(t *testing.T) {
		factory, requested := recordingFactory(nil)
		sel := embedding.NewSelector(&mockSettings{}, factory)

		provider, err := sel.Select(ctx)
		gt.NoError(t, err)
		gt.Equal(t, embedding.DefaultTarget, provider.Target())
		gt.Equal(t, 1, len(*requested))
	})

	t.Run("all candidates failing is unavailable", func(t *testing.T) {
		factory, _ := recordingFactory(map[string]error{
			remote.String():                  goerr.New("no api key"),
			embedding.DefaultTarget.String(): goerr.New("no project"),
		})
		sel := embedding.NewSelector(&mockSettings{target: remote}, factory)

		_, err := sel.Select(ctx)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrProviderUnavailable))
	})
}
