package types

import (
	"context"

	"github.com/xhad/siteqa/internal/models"
)

// Core interfaces

// Response is the result of a plain HTTP GET.
type Response struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TextParser turns a binary asset (PDF, image) into plain text.
type TextParser interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// FactStore keeps exactly one BusinessProfile per website.
type FactStore interface {
	UpsertFact(ctx context.Context, profile models.BusinessProfile) (*models.BusinessProfile, error)
	// GetFact returns nil, nil when the website has no profile.
	GetFact(ctx context.Context, website string) (*models.BusinessProfile, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ContentStore holds embedded chunks and taught Q&A pairs. All searches are
// filtered by exact website match.
type ContentStore interface {
	InsertChunk(ctx context.Context, chunk models.ContentChunk) error
	ChunkExists(ctx context.Context, website, hash string) (bool, error)
	SearchChunks(ctx context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error)
	InsertQA(ctx context.Context, qa models.CustomQA) error
	SearchQA(ctx context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error)
}

type Store interface {
	FactStore
	ContentStore
	Close()
}
