package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/types"
	"github.com/xhad/siteqa/pkg/config"
	"github.com/xhad/siteqa/pkg/facts"
	"github.com/xhad/siteqa/pkg/fetch"
	"github.com/xhad/siteqa/pkg/llm"
	"github.com/xhad/siteqa/pkg/menu"
	"github.com/xhad/siteqa/pkg/ocr"
	"github.com/xhad/siteqa/pkg/pipeline"
	"github.com/xhad/siteqa/pkg/processor"
	"github.com/xhad/siteqa/pkg/qa"
	"github.com/xhad/siteqa/pkg/scraper"
	"github.com/xhad/siteqa/pkg/store"
)

// app holds the process-wide collaborators. It is built once per command.
type app struct {
	store        types.Store
	crawler      *scraper.Crawler
	indexer      *processor.Indexer
	detector     *facts.Detector
	pipeline     *pipeline.Pipeline
	orchestrator *qa.Orchestrator
}

type appOptions struct {
	// onProgress is called for every crawled page that yielded a document.
	onProgress func(url string)
}

func buildApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	completer, err := newCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   time.Duration(cfg.Scraper.TimeoutSecs) * time.Second,
		MaxBytes:  cfg.Scraper.MaxBytes,
	})
	assetFetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   time.Duration(cfg.Menu.AssetTimeoutSecs) * time.Second,
		MaxBytes:  cfg.Scraper.MaxBytes,
	})

	crawler := scraper.NewWithConfig(fetcher, scraper.ScraperConfig{
		PageLimit:      cfg.Scraper.PageLimit,
		RateLimit:      cfg.Scraper.RateLimit,
		IgnorePatterns: cfg.Scraper.IgnorePatterns,
		IgnoreRobots:   cfg.Scraper.IgnoreRobots,
		UserAgent:      fetcher.UserAgent(),
		OnProgress:     opts.onProgress,
	})

	indexer := processor.NewWithConfig(embedder, st, processor.ProcessorConfig{
		ChunkSize:      cfg.Processor.ChunkSize,
		ChunkOverlap:   cfg.Processor.ChunkOverlap,
		SkipDuplicates: cfg.Processor.SkipDuplicates,
	})

	menus := menu.NewExtractor(assetFetcher,
		ocr.NewPdfToText(cfg.Menu.PdfToTextPath),
		ocr.NewTesseract(cfg.Menu.TesseractPath, cfg.Menu.OCRLang),
		menu.Config{
			MaxCandidates: cfg.Menu.MaxCandidates,
			Concurrency:   cfg.Menu.Concurrency,
			ParseTimeout:  time.Duration(cfg.Menu.ParseTimeoutSecs) * time.Second,
		},
	)
	detector := facts.NewDetector(fetcher, st, menus)

	return &app{
		store:    st,
		crawler:  crawler,
		indexer:  indexer,
		detector: detector,
		pipeline: pipeline.New(crawler, indexer, detector, cfg.Scraper.PageLimit),
		orchestrator: qa.New(st, st, embedder, completer, crawler, indexer, qa.Config{
			SearchLimit:     cfg.QA.SearchLimit,
			FallbackPages:   cfg.QA.FallbackPages,
			MaxContextChars: cfg.QA.MaxContextChars,
		}),
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

func newCompleter(cfg config.LLMConfig) (types.Completer, error) {
	chat := llm.ChatConfig{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
	}
	if cfg.Provider == llm.ProviderAnthropic {
		c, err := llm.NewAnthropic(chat)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := llm.NewWithConfig(chat)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func openStore(ctx context.Context, cfg *config.Config, dims int) (types.Store, error) {
	if cfg.Database.URL == "" {
		zap.L().Info("store: no database url configured, using in-memory store")
		return store.NewMemory(), nil
	}
	vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString:  cfg.Database.URL,
		VectorDim:   dims,
		SearchLimit: cfg.Database.SearchLimit,
		EfSearch:    cfg.Database.EfSearch,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return vs, nil
}
