package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
)

const DefaultChunkSize = 1500

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// SkipDuplicates skips chunks whose hash is already stored for the
	// website instead of appending them again.
	SkipDuplicates bool
}

// Splitter cuts text into fixed-size rune windows.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// Split returns consecutive slices of at most ChunkSize runes. With an
// overlap, each chunk repeats the last ChunkOverlap runes of the previous one.
func (s Splitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	step := size - s.ChunkOverlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Indexer embeds document chunks and taught answers into a content store.
type Indexer struct {
	config   ProcessorConfig
	splitter Splitter
	embedder types.Embedder
	store    types.ContentStore
}

func NewWithConfig(embedder types.Embedder, store types.ContentStore, config ProcessorConfig) *Indexer {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = 0
	}
	return &Indexer{
		config:   config,
		splitter: Splitter{ChunkSize: config.ChunkSize, ChunkOverlap: config.ChunkOverlap},
		embedder: embedder,
		store:    store,
	}
}

func New(embedder types.Embedder, store types.ContentStore) *Indexer {
	return NewWithConfig(embedder, store, ProcessorConfig{})
}

// Hash is the hex SHA-256 of a chunk's text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IndexDocuments chunks, embeds and stores every document and returns the
// number of chunks written. Chunks that fail to embed or store are logged and
// skipped.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []models.ExtractedDocument, website string) int {
	if len(docs) == 0 {
		return 0
	}

	written := 0
	for _, doc := range docs {
		for n, text := range ix.splitter.Split(doc.Text) {
			if ctx.Err() != nil {
				return written
			}
			log := zap.L().With(zap.String("url", doc.URL), zap.Int("chunk", n))

			hash := Hash(text)
			if ix.config.SkipDuplicates {
				exists, err := ix.store.ChunkExists(ctx, website, hash)
				if err != nil {
					log.Warn("processor: duplicate check failed", zap.Error(err))
				} else if exists {
					log.Debug("processor: chunk already indexed")
					continue
				}
			}

			embedding, err := ix.embedder.Embed(ctx, text)
			if err != nil {
				log.Warn("processor: embed failed", zap.Error(err))
				continue
			}

			chunk := models.ContentChunk{
				ID:          uuid.NewString(),
				Website:     website,
				SourceURL:   doc.URL,
				Title:       doc.TitleOrEmpty(),
				Section:     fmt.Sprintf("chunk-%d", n),
				ContentType: "text/html",
				Text:        text,
				Hash:        hash,
				FetchedAt:   doc.FetchedAt,
				Embedding:   embedding,
			}
			if err := ix.store.InsertChunk(ctx, chunk); err != nil {
				log.Warn("processor: insert failed", zap.Error(err))
				continue
			}
			written++
		}
	}

	zap.L().Info("processor: indexed documents",
		zap.String("website", website),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", written),
	)
	return written
}

// Teach stores an explicit question and answer pair for a website.
func (ix *Indexer) Teach(ctx context.Context, website, question, answer string) (*models.CustomQA, error) {
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, eris.New("processor: question and answer are required")
	}

	embedding, err := ix.embedder.Embed(ctx, question+"\n"+answer)
	if err != nil {
		if models.IsKind(err, models.ModelFailure) {
			return nil, err
		}
		return nil, models.Fail(models.ModelFailure, "embed qa", err)
	}

	qa := models.CustomQA{
		ID:        uuid.NewString(),
		Website:   website,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
		Embedding: embedding,
	}
	if err := ix.store.InsertQA(ctx, qa); err != nil {
		if models.IsKind(err, models.StoreFailure) {
			return nil, err
		}
		return nil, models.Fail(models.StoreFailure, "insert qa", err)
	}
	return &qa, nil
}
