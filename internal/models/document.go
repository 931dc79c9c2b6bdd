package models

import "time"

// CrawledPage is a fetched page before extraction. It is never persisted.
type CrawledPage struct {
	URL         string
	RawHTML     string
	ContentType string
	StatusCode  int
}

// ExtractedDocument is one page that produced readable text.
type ExtractedDocument struct {
	URL       string
	Title     *string
	Text      string
	FetchedAt time.Time
}

// TitleOrEmpty returns the page title or "" when the page had none.
func (d ExtractedDocument) TitleOrEmpty() string {
	if d.Title == nil {
		return ""
	}
	return *d.Title
}

// ContentChunk is a fixed-size slice of a document's text together with its
// embedding. Chunks are append-only.
type ContentChunk struct {
	ID          string
	Website     string
	SourceURL   string
	Title       string
	Section     string
	ContentType string
	Text        string
	Hash        string
	FetchedAt   time.Time
	Embedding   []float32
}

// CustomQA is a manually taught question/answer pair for a website.
type CustomQA struct {
	ID        string
	Website   string
	Question  string
	Answer    string
	CreatedAt time.Time
	Embedding []float32
}

// Record classes held by the content store.
const (
	ClassWebContent = "WebContent"
	ClassCustomQA   = "CustomQA"
)

// SearchHit is a single nearest-neighbour result.
type SearchHit struct {
	Class  string
	ID     string
	Source string
	Text   string
	Score  float64
}
