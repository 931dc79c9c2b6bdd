// Package store persists business profiles, content chunks and taught Q&A
// pairs, either in Postgres with pgvector or in memory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rotisserie/eris"

	"github.com/xhad/siteqa/internal/models"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy
// it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type VectorStoreConfig struct {
	ConnString  string
	VectorDim   int
	SearchLimit int
	// EfSearch is the hnsw.ef_search candidate list size of every session.
	EfSearch int
}

// VectorStore implements types.Store on Postgres.
type VectorStore struct {
	config VectorStoreConfig
	pool   Pool
	now    func() time.Time
}

func applyDefaults(config *VectorStoreConfig) {
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 3
	}
	if config.EfSearch == 0 {
		config.EfSearch = 100
	}
}

// NewWithConfig connects to Postgres and creates the schema when missing.
func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	applyDefaults(&config)

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse connection string")
	}
	settings := sessionSettings(config)
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for _, stmt := range settings {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return eris.Wrapf(err, "store: %s", stmt)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect")
	}

	vs := New(pool, config)
	if err := vs.Initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return vs, nil
}

// sessionSettings run on every new connection. With iterative scans the hnsw
// index keeps walking until LIMIT rows pass the website filter, so a site
// with chunks never searches empty.
func sessionSettings(config VectorStoreConfig) []string {
	return []string{
		fmt.Sprintf("SET hnsw.ef_search = %d", config.EfSearch),
		"SET hnsw.iterative_scan = strict_order",
	}
}

// New wraps an existing pool without touching the schema.
func New(pool Pool, config VectorStoreConfig) *VectorStore {
	applyDefaults(&config)
	return &VectorStore{config: config, pool: pool, now: time.Now}
}

// Initialize enables pgvector and creates the tables and indexes.
func (vs *VectorStore) Initialize(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS web_content (
			id TEXT PRIMARY KEY,
			website TEXT NOT NULL,
			source_url TEXT NOT NULL,
			title TEXT,
			section TEXT,
			content_type TEXT,
			text TEXT NOT NULL,
			hash TEXT NOT NULL,
			fetched_at TIMESTAMPTZ,
			embedding vector(%d)
		)`, vs.config.VectorDim),
		`CREATE INDEX IF NOT EXISTS web_content_website_hash_idx ON web_content (website, hash)`,
		`CREATE INDEX IF NOT EXISTS web_content_embedding_idx
			ON web_content USING hnsw (embedding vector_cosine_ops)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS custom_qa (
			id TEXT PRIMARY KEY,
			website TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			embedding vector(%d)
		)`, vs.config.VectorDim),
		`CREATE INDEX IF NOT EXISTS custom_qa_website_idx ON custom_qa (website)`,
		`CREATE TABLE IF NOT EXISTS business_profiles (
			id TEXT PRIMARY KEY,
			website TEXT NOT NULL,
			profile JSONB NOT NULL,
			last_refreshed TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return storeFailure("initialize", eris.Wrap(err, "store: initialize schema"))
		}
	}
	return nil
}

func (vs *VectorStore) InsertChunk(ctx context.Context, c models.ContentChunk) error {
	_, err := vs.pool.Exec(ctx, `
		INSERT INTO web_content (id, website, source_url, title, section, content_type, text, hash, fetched_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Website, c.SourceURL, sanitizeUTF8(c.Title), c.Section, c.ContentType,
		sanitizeUTF8(c.Text), c.Hash, c.FetchedAt, pgvector.NewVector(c.Embedding),
	)
	if err != nil {
		return storeFailure("insert chunk", eris.Wrap(err, "store: insert chunk"))
	}
	return nil
}

func (vs *VectorStore) ChunkExists(ctx context.Context, website, hash string) (bool, error) {
	var exists bool
	err := vs.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM web_content WHERE website = $1 AND hash = $2)`,
		website, hash,
	).Scan(&exists)
	if err != nil {
		return false, storeFailure("chunk exists", eris.Wrap(err, "store: chunk exists"))
	}
	return exists, nil
}

func (vs *VectorStore) SearchChunks(ctx context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}
	rows, err := vs.pool.Query(ctx, `
		SELECT id, source_url, text, 1 - (embedding <=> $1) AS score
		FROM web_content
		WHERE website = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), website, limit,
	)
	if err != nil {
		return nil, storeFailure("search chunks", eris.Wrap(err, "store: search chunks"))
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		hit := models.SearchHit{Class: models.ClassWebContent}
		if err := rows.Scan(&hit.ID, &hit.Source, &hit.Text, &hit.Score); err != nil {
			return nil, storeFailure("search chunks", eris.Wrap(err, "store: scan chunk"))
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("search chunks", eris.Wrap(err, "store: iterate chunks"))
	}
	return hits, nil
}

func (vs *VectorStore) InsertQA(ctx context.Context, qa models.CustomQA) error {
	_, err := vs.pool.Exec(ctx, `
		INSERT INTO custom_qa (id, website, question, answer, created_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		qa.ID, qa.Website, sanitizeUTF8(qa.Question), sanitizeUTF8(qa.Answer), qa.CreatedAt,
		pgvector.NewVector(qa.Embedding),
	)
	if err != nil {
		return storeFailure("insert qa", eris.Wrap(err, "store: insert qa"))
	}
	return nil
}

func (vs *VectorStore) SearchQA(ctx context.Context, embedding []float32, website string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}
	rows, err := vs.pool.Query(ctx, `
		SELECT id, question, answer, 1 - (embedding <=> $1) AS score
		FROM custom_qa
		WHERE website = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), website, limit,
	)
	if err != nil {
		return nil, storeFailure("search qa", eris.Wrap(err, "store: search qa"))
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var question, answer string
		hit := models.SearchHit{Class: models.ClassCustomQA, Source: website}
		if err := rows.Scan(&hit.ID, &question, &answer, &hit.Score); err != nil {
			return nil, storeFailure("search qa", eris.Wrap(err, "store: scan qa"))
		}
		hit.Text = QAText(question, answer)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("search qa", eris.Wrap(err, "store: iterate qa"))
	}
	return hits, nil
}

// UpsertFact replaces the whole profile record of a website in one
// statement. last_refreshed never moves backwards.
func (vs *VectorStore) UpsertFact(ctx context.Context, p models.BusinessProfile) (*models.BusinessProfile, error) {
	p.ID = models.ProfileID(p.Website)
	p.LastRefreshed = vs.now().UTC()

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, storeFailure("upsert fact", eris.Wrap(err, "store: encode profile"))
	}

	var refreshed time.Time
	err = vs.pool.QueryRow(ctx, `
		INSERT INTO business_profiles (id, website, profile, last_refreshed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			website = EXCLUDED.website,
			profile = EXCLUDED.profile,
			last_refreshed = GREATEST(business_profiles.last_refreshed, EXCLUDED.last_refreshed)
		RETURNING last_refreshed`,
		p.ID, p.Website, payload, p.LastRefreshed,
	).Scan(&refreshed)
	if err != nil {
		return nil, storeFailure("upsert fact", eris.Wrap(err, "store: upsert profile"))
	}
	p.LastRefreshed = refreshed.UTC()
	return &p, nil
}

func (vs *VectorStore) GetFact(ctx context.Context, website string) (*models.BusinessProfile, error) {
	var (
		payload   []byte
		refreshed time.Time
	)
	err := vs.pool.QueryRow(ctx,
		`SELECT profile, last_refreshed FROM business_profiles WHERE id = $1`,
		models.ProfileID(website),
	).Scan(&payload, &refreshed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeFailure("get fact", eris.Wrap(err, "store: get profile"))
	}

	var p models.BusinessProfile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, storeFailure("get fact", eris.Wrap(err, "store: decode profile"))
	}
	p.LastRefreshed = refreshed.UTC()
	return &p, nil
}

func (vs *VectorStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := vs.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM business_profiles WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, storeFailure("exists", eris.Wrap(err, "store: profile exists"))
	}
	return exists, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// QAText renders a taught pair as search context.
func QAText(question, answer string) string {
	return "Q: " + question + "\nA: " + answer
}

func storeFailure(op string, err error) error {
	return models.Fail(models.StoreFailure, op, err)
}

// sanitizeUTF8 drops invalid bytes, which Postgres rejects in TEXT columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
