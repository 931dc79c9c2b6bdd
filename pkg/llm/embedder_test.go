package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/llm"
)

type mockEmbeddingClient struct {
	texts []string
	vecs  [][]float32
	err   error
}

func (m *mockEmbeddingClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	m.texts = append(m.texts, texts...)
	return m.vecs, m.err
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, 768, emb.Dimensions())

	emb, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: llm.ProviderOpenAI, APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, emb.Dimensions())

	_, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: "wat"})
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	client := &mockEmbeddingClient{vecs: [][]float32{{0.1, 0.2, 0.3}}}
	emb := llm.NewEmbedder(client, llm.EmbedderConfig{Dimensions: 3})

	vec, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"hello"}, client.texts)
}

func TestEmbedFailures(t *testing.T) {
	_, err := llm.NewEmbedder(&mockEmbeddingClient{err: errors.New("down")}, llm.EmbedderConfig{}).
		Embed(context.Background(), "x")
	assert.True(t, models.IsKind(err, models.ModelFailure))

	_, err = llm.NewEmbedder(&mockEmbeddingClient{}, llm.EmbedderConfig{}).Embed(context.Background(), "x")
	assert.True(t, models.IsKind(err, models.ModelFailure))
}
