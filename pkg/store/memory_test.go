package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/siteqa/internal/models"
)

func TestMemoryOneProfilePerWebsite(t *testing.T) {
	m := NewMemory()
	clock := []time.Time{
		time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	m.now = func() time.Time {
		t := clock[0]
		clock = clock[1:]
		return t
	}

	ctx := context.Background()
	_, err := m.UpsertFact(ctx, models.BusinessProfile{Website: "https://x.example", Name: "Old"})
	require.NoError(t, err)
	p, err := m.UpsertFact(ctx, models.BusinessProfile{Website: "https://x.example", Name: "New"})
	require.NoError(t, err)

	assert.Len(t, m.profiles, 1)
	assert.Equal(t, "New", p.Name)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), p.LastRefreshed)

	got, err := m.GetFact(ctx, "https://x.example")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	ok, err := m.Exists(ctx, models.ProfileID("https://x.example"))
	require.NoError(t, err)
	assert.True(t, ok)

	missing, err := m.GetFact(ctx, "https://other.example")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemorySearchIsScopedAndRanked(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertChunk(ctx, models.ContentChunk{ID: "a", Website: "https://x.example", Text: "near", Embedding: []float32{1, 0}}))
	require.NoError(t, m.InsertChunk(ctx, models.ContentChunk{ID: "b", Website: "https://x.example", Text: "far", Embedding: []float32{0, 1}}))
	require.NoError(t, m.InsertChunk(ctx, models.ContentChunk{ID: "c", Website: "https://y.example", Text: "other site", Embedding: []float32{1, 0}}))
	require.NoError(t, m.InsertQA(ctx, models.CustomQA{ID: "q", Website: "https://x.example", Question: "Q?", Answer: "A.", Embedding: []float32{1, 1}}))

	hits, err := m.SearchChunks(ctx, []float32{1, 0}, "https://x.example", 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	qa, err := m.SearchQA(ctx, []float32{1, 0}, "https://x.example", 3)
	require.NoError(t, err)
	require.Len(t, qa, 1)
	assert.Equal(t, "Q: Q?\nA: A.", qa[0].Text)

	exists, err := m.ChunkExists(ctx, "https://y.example", "")
	require.NoError(t, err)
	assert.True(t, exists)

	chunks, qas := m.Len()
	assert.Equal(t, 3, chunks)
	assert.Equal(t, 1, qas)
}

func TestCosine(t *testing.T) {
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestSessionSettings(t *testing.T) {
	config := VectorStoreConfig{}
	applyDefaults(&config)

	assert.Equal(t, []string{
		"SET hnsw.ef_search = 100",
		"SET hnsw.iterative_scan = strict_order",
	}, sessionSettings(config))
}
