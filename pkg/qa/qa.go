// Package qa answers questions about a single website from its stored
// facts, its indexed content, or a live crawl when nothing is indexed yet.
package qa

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
	"github.com/xhad/siteqa/pkg/classify"
	"github.com/xhad/siteqa/pkg/strategy"
)

const (
	DefaultSearchLimit     = 3
	DefaultFallbackPages   = 5
	DefaultMaxContextChars = 12000
	// menuPreview bounds the items listed in a templated menu answer.
	menuPreview = 10
)

const systemTemplate = "You are an assistant for %s. Use the provided context if available. " +
	"If the context is missing or insufficient, use general knowledge. " +
	"Never invent phone numbers, email addresses or street addresses; say they are unknown instead."

// Crawler fetches up to pageLimit documents of a website.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, pageLimit int) ([]models.ExtractedDocument, error)
}

// Indexer writes crawled documents to the content store.
type Indexer interface {
	IndexDocuments(ctx context.Context, docs []models.ExtractedDocument, website string) int
}

// Streamer is implemented by completers that can emit partial output.
type Streamer interface {
	Stream(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error)
}

type Config struct {
	SearchLimit     int
	FallbackPages   int
	MaxContextChars int
}

type Orchestrator struct {
	config    Config
	facts     types.FactStore
	content   types.ContentStore
	embedder  types.Embedder
	completer types.Completer
	crawler   Crawler
	indexer   Indexer
}

func New(facts types.FactStore, content types.ContentStore, embedder types.Embedder,
	completer types.Completer, crawler Crawler, indexer Indexer, config Config) *Orchestrator {
	if config.SearchLimit <= 0 {
		config.SearchLimit = DefaultSearchLimit
	}
	if config.FallbackPages <= 0 {
		config.FallbackPages = DefaultFallbackPages
	}
	if config.MaxContextChars <= 0 {
		config.MaxContextChars = DefaultMaxContextChars
	}
	return &Orchestrator{
		config:    config,
		facts:     facts,
		content:   content,
		embedder:  embedder,
		completer: completer,
		crawler:   crawler,
		indexer:   indexer,
	}
}

// Answer returns a reply to question scoped to website. Only embedding and
// completion failures are returned; everything else degrades the context.
func (o *Orchestrator) Answer(ctx context.Context, question, website string) (string, error) {
	return o.answer(ctx, question, website, nil)
}

// AnswerStream is Answer with incremental output. onChunk receives the whole
// answer at once when it comes from a stored fact or the completer cannot
// stream.
func (o *Orchestrator) AnswerStream(ctx context.Context, question, website string, onChunk func(string)) (string, error) {
	return o.answer(ctx, question, website, onChunk)
}

func (o *Orchestrator) answer(ctx context.Context, question, website string, onChunk func(string)) (string, error) {
	if answer, ok := o.factAnswer(ctx, question, website); ok {
		zap.L().Info("qa: answered from profile", zap.String("website", website))
		if onChunk != nil {
			onChunk(answer)
		}
		return answer, nil
	}

	vec, err := o.embedder.Embed(ctx, question)
	if err != nil {
		if models.IsKind(err, models.ModelFailure) {
			return "", err
		}
		return "", models.Fail(models.ModelFailure, "embed question", err)
	}

	out := strategy.First(ctx,
		strategy.Of("search", func(ctx context.Context) strategy.Outcome[string] {
			return o.searchContext(ctx, vec, website)
		}),
		strategy.Of("live-crawl", func(ctx context.Context) strategy.Outcome[string] {
			return o.crawlContext(ctx, website)
		}),
	)
	if out.Err != nil {
		zap.L().Warn("qa: context degraded", zap.String("website", website), zap.Error(out.Err))
	}

	system := fmt.Sprintf(systemTemplate, website)
	user := "Context:\n" + out.Value + "\n\nQuestion: " + question

	var answer string
	if s, ok := o.completer.(Streamer); ok && onChunk != nil {
		answer, err = s.Stream(ctx, system, user, onChunk)
	} else {
		answer, err = o.completer.Complete(ctx, system, user)
		if err == nil && onChunk != nil {
			onChunk(answer)
		}
	}
	if err != nil {
		if models.IsKind(err, models.ModelFailure) {
			return "", err
		}
		return "", models.Fail(models.ModelFailure, "complete", err)
	}
	return strings.TrimSpace(answer), nil
}

func (o *Orchestrator) factAnswer(ctx context.Context, question, website string) (string, bool) {
	intent, ok := classify.IntentRules.Match(question)
	if !ok {
		return "", false
	}
	profile, err := o.facts.GetFact(ctx, website)
	if err != nil {
		zap.L().Warn("qa: profile lookup failed", zap.String("website", website), zap.Error(err))
		return "", false
	}
	if profile == nil {
		return "", false
	}
	return Template(intent, *profile)
}

// Template renders the stored fact matching intent, if the profile has it.
func Template(intent string, p models.BusinessProfile) (string, bool) {
	switch intent {
	case classify.IntentPhone:
		if p.Telephone != "" {
			return fmt.Sprintf("You can reach %s by phone at %s.", displayName(p), p.Telephone), true
		}
	case classify.IntentEmail:
		if p.Email != "" {
			return fmt.Sprintf("You can email %s at %s.", displayName(p), p.Email), true
		}
	case classify.IntentAddress:
		if p.Address != "" {
			return fmt.Sprintf("%s is located at %s.", displayName(p), p.Address), true
		}
	case classify.IntentMenu:
		return menuAnswer(p)
	}
	return "", false
}

func menuAnswer(p models.BusinessProfile) (string, bool) {
	if len(p.MenuItems) == 0 && len(p.MenuURLs) == 0 {
		return "", false
	}
	var b strings.Builder
	if len(p.MenuItems) > 0 {
		b.WriteString("Some items from the menu:\n")
		for _, item := range p.MenuItems[:min(len(p.MenuItems), menuPreview)] {
			b.WriteString("- ")
			b.WriteString(item.Name)
			if item.Price != nil {
				b.WriteString(" (" + *item.Price + ")")
			}
			b.WriteString("\n")
		}
	}
	if len(p.MenuURLs) > 0 {
		b.WriteString("The full menu is available at " + strings.Join(p.MenuURLs, ", ") + ".")
	}
	return strings.TrimSpace(b.String()), true
}

func displayName(p models.BusinessProfile) string {
	if p.Name != "" {
		return p.Name
	}
	return "us"
}

func (o *Orchestrator) searchContext(ctx context.Context, vec []float32, website string) strategy.Outcome[string] {
	chunks, err := o.content.SearchChunks(ctx, vec, website, o.config.SearchLimit)
	if err != nil {
		return strategy.Failed[string](err)
	}
	qas, err := o.content.SearchQA(ctx, vec, website, o.config.SearchLimit)
	if err != nil {
		zap.L().Warn("qa: custom qa search failed", zap.String("website", website), zap.Error(err))
	}

	texts := make([]string, 0, len(chunks)+len(qas))
	for _, h := range append(qas, chunks...) {
		if t := strings.TrimSpace(h.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return strategy.NotFound[string]()
	}
	return strategy.Found(o.capContext(strings.Join(texts, "\n\n")))
}

// crawlContext crawls and indexes the website, then builds the context from
// the crawled text rather than querying the store again.
func (o *Orchestrator) crawlContext(ctx context.Context, website string) strategy.Outcome[string] {
	zap.L().Info("qa: no indexed context, crawling live", zap.String("website", website))
	docs, err := o.crawler.Crawl(ctx, website, o.config.FallbackPages)
	if err != nil {
		return strategy.Failed[string](err)
	}
	if len(docs) == 0 {
		return strategy.NotFound[string]()
	}
	n := o.indexer.IndexDocuments(ctx, docs, website)
	zap.L().Info("qa: indexed live crawl", zap.String("website", website), zap.Int("pages", len(docs)), zap.Int("chunks", n))

	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}
	return strategy.Found(o.capContext(strings.Join(texts, "\n\n")))
}

func (o *Orchestrator) capContext(s string) string {
	r := []rune(s)
	if len(r) <= o.config.MaxContextChars {
		return s
	}
	return string(r[:o.config.MaxContextChars])
}
