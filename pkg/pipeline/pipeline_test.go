package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/pkg/pipeline"
)

type stubCrawler struct {
	limit int
	docs  []models.ExtractedDocument
	err   error
}

func (s *stubCrawler) Crawl(_ context.Context, _ string, pageLimit int) ([]models.ExtractedDocument, error) {
	s.limit = pageLimit
	return s.docs, s.err
}

type stubIndexer struct{ docs int }

func (s *stubIndexer) IndexDocuments(_ context.Context, docs []models.ExtractedDocument, _ string) int {
	s.docs += len(docs)
	return len(docs) * 2
}

type stubProfiler struct {
	profile *models.BusinessProfile
	err     error
}

func (s *stubProfiler) DetectAndStore(context.Context, string, []models.ExtractedDocument) (*models.BusinessProfile, error) {
	return s.profile, s.err
}

var docs = []models.ExtractedDocument{{URL: "https://x.example", Text: "a"}, {URL: "https://x.example/b", Text: "b"}}

func TestIndexWebsite(t *testing.T) {
	crawler := &stubCrawler{docs: docs}
	indexer := &stubIndexer{}
	profile := &models.BusinessProfile{Website: "https://x.example", Vertical: models.VerticalGeneric}
	p := pipeline.New(crawler, indexer, &stubProfiler{profile: profile}, 25)

	report, err := p.IndexWebsite(context.Background(), "https://x.example")
	require.NoError(t, err)
	assert.Equal(t, 25, crawler.limit)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 4, report.Chunks)
	assert.Same(t, profile, report.Profile)
	assert.NoError(t, report.ProfileErr)
}

func TestProfileFailureDoesNotAbort(t *testing.T) {
	indexer := &stubIndexer{}
	failure := models.Fail(models.FetchFailure, "https://x.example", errors.New("timeout"))
	p := pipeline.New(&stubCrawler{docs: docs}, indexer, &stubProfiler{err: failure}, 10)

	report, err := p.IndexWebsite(context.Background(), "https://x.example")
	require.NoError(t, err)
	assert.Equal(t, 2, indexer.docs)
	assert.Nil(t, report.Profile)
	assert.True(t, models.IsKind(report.ProfileErr, models.FetchFailure))
}

func TestCrawlErrorAborts(t *testing.T) {
	p := pipeline.New(&stubCrawler{err: errors.New("scraper: invalid start url")}, &stubIndexer{}, nil, 10)

	_, err := p.IndexWebsite(context.Background(), "::")
	assert.Error(t, err)
}

func TestNilProfilerSkipsDetection(t *testing.T) {
	p := pipeline.New(&stubCrawler{docs: docs}, &stubIndexer{}, nil, 10)

	report, err := p.IndexWebsite(context.Background(), "https://x.example")
	require.NoError(t, err)
	assert.Nil(t, report.Profile)
	assert.NoError(t, report.ProfileErr)
}
