// Package pipeline runs a full indexing pass over one website.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
)

type Crawler interface {
	Crawl(ctx context.Context, startURL string, pageLimit int) ([]models.ExtractedDocument, error)
}

type Indexer interface {
	IndexDocuments(ctx context.Context, docs []models.ExtractedDocument, website string) int
}

type Profiler interface {
	DetectAndStore(ctx context.Context, website string, docs []models.ExtractedDocument) (*models.BusinessProfile, error)
}

// Report summarizes an indexing run. ProfileErr is set when profile
// detection failed; the content index is still populated in that case.
type Report struct {
	Website    string
	Pages      int
	Chunks     int
	Profile    *models.BusinessProfile
	ProfileErr error
	Elapsed    time.Duration
}

type Pipeline struct {
	crawler   Crawler
	indexer   Indexer
	profiler  Profiler
	pageLimit int
}

// New builds a pipeline. A nil profiler skips profile detection.
func New(crawler Crawler, indexer Indexer, profiler Profiler, pageLimit int) *Pipeline {
	return &Pipeline{crawler: crawler, indexer: indexer, profiler: profiler, pageLimit: pageLimit}
}

// IndexWebsite crawls website, indexes the documents and refreshes the
// business profile. Only an unusable start URL aborts the run.
func (p *Pipeline) IndexWebsite(ctx context.Context, website string) (*Report, error) {
	start := time.Now()
	docs, err := p.crawler.Crawl(ctx, website, p.pageLimit)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: crawl %s", website)
	}

	report := &Report{Website: website, Pages: len(docs)}
	report.Chunks = p.indexer.IndexDocuments(ctx, docs, website)

	if p.profiler != nil {
		profile, err := p.profiler.DetectAndStore(ctx, website, docs)
		if err != nil {
			zap.L().Warn("pipeline: profile detection failed", zap.String("website", website), zap.Error(err))
			report.ProfileErr = err
		} else {
			report.Profile = profile
		}
	}

	report.Elapsed = time.Since(start)
	zap.L().Info("pipeline: indexed website",
		zap.String("website", website),
		zap.Int("pages", report.Pages),
		zap.Int("chunks", report.Chunks),
		zap.Bool("profile", report.Profile != nil),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
