package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/xhad/siteqa/internal/models"
)

// Memory is an in-process Store with brute-force cosine search. Records are
// lost when the process exits.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]models.BusinessProfile
	chunks   []models.ContentChunk
	qas      []models.CustomQA
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{profiles: map[string]models.BusinessProfile{}, now: time.Now}
}

func (m *Memory) UpsertFact(_ context.Context, p models.BusinessProfile) (*models.BusinessProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = models.ProfileID(p.Website)
	p.LastRefreshed = m.now().UTC()
	if old, ok := m.profiles[p.ID]; ok && old.LastRefreshed.After(p.LastRefreshed) {
		p.LastRefreshed = old.LastRefreshed
	}
	m.profiles[p.ID] = p
	return &p, nil
}

func (m *Memory) GetFact(_ context.Context, website string) (*models.BusinessProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[models.ProfileID(website)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.profiles[id]
	return ok, nil
}

func (m *Memory) InsertChunk(_ context.Context, c models.ContentChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, c)
	return nil
}

func (m *Memory) ChunkExists(_ context.Context, website, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.chunks {
		if c.Website == website && c.Hash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SearchChunks(_ context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []models.SearchHit
	for _, c := range m.chunks {
		if c.Website != website {
			continue
		}
		hits = append(hits, models.SearchHit{
			Class:  models.ClassWebContent,
			ID:     c.ID,
			Source: c.SourceURL,
			Text:   c.Text,
			Score:  cosine(embedding, c.Embedding),
		})
	}
	return topK(hits, limit), nil
}

func (m *Memory) InsertQA(_ context.Context, qa models.CustomQA) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qas = append(m.qas, qa)
	return nil
}

func (m *Memory) SearchQA(_ context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []models.SearchHit
	for _, qa := range m.qas {
		if qa.Website != website {
			continue
		}
		hits = append(hits, models.SearchHit{
			Class:  models.ClassCustomQA,
			ID:     qa.ID,
			Source: website,
			Text:   QAText(qa.Question, qa.Answer),
			Score:  cosine(embedding, qa.Embedding),
		})
	}
	return topK(hits, limit), nil
}

// Len reports the number of stored chunks and Q&A pairs.
func (m *Memory) Len() (chunks, qas int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), len(m.qas)
}

func (m *Memory) Close() {}

func topK(hits []models.SearchHit, k int) []models.SearchHit {
	if k <= 0 {
		k = 3
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
