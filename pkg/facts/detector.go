// Package facts builds a structured BusinessProfile for a website from its
// homepage markup and crawled pages.
package facts

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
	"github.com/xhad/siteqa/pkg/fetch"
	"github.com/xhad/siteqa/pkg/strategy"
)

// MenuExtractor enriches restaurant profiles.
type MenuExtractor interface {
	ExtractMenu(ctx context.Context, website, homepageHTML string) models.MenuResult
}

type Detector struct {
	fetcher types.Fetcher
	store   types.FactStore
	menu    MenuExtractor
}

// NewDetector wires a detector. menu may be nil, in which case restaurant
// profiles carry no menu.
func NewDetector(fetcher types.Fetcher, store types.FactStore, menu MenuExtractor) *Detector {
	return &Detector{fetcher: fetcher, store: store, menu: menu}
}

// DetectProfile derives a profile from homepage HTML and the crawled
// documents. It never fails; missing facts stay empty.
func (d *Detector) DetectProfile(ctx context.Context, website, homepageHTML string, docs []models.ExtractedDocument) models.BusinessProfile {
	log := zap.L().With(zap.String("website", website))

	profile := models.NewProfile(website)
	profile.Vertical = DetectVertical(homepageHTML)

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML)); err == nil {
		if structured, ok := profileFromJSONLD(JSONLDObjects(doc)); ok {
			profile = models.Merge(profile, structured)
		} else {
			log.Debug("facts: no business json-ld")
		}
	}

	if profile.Email == "" || profile.Telephone == "" {
		email, phone := fallbackContacts(homepageHTML)
		profile = models.Merge(profile, models.BusinessProfile{Email: email, Telephone: phone})
	}

	if profile.Address == "" {
		out := resolveAddress(ctx, docs)
		if out.Status == strategy.StatusFound {
			profile.Address = out.Value
			log.Debug("facts: address resolved", zap.String("strategy", out.By))
		}
	}

	if profile.Vertical == models.VerticalRestaurant && d.menu != nil {
		res := d.menu.ExtractMenu(ctx, website, homepageHTML)
		profile.MenuURLs = res.MenuURLs
		profile.MenuItems = res.MenuItems
		log.Info("facts: menu extracted",
			zap.Int("menu_urls", len(res.MenuURLs)),
			zap.Int("menu_items", len(res.MenuItems)),
		)
	}

	return profile
}

// DetectAndStore fetches the homepage, detects the profile and upserts it.
func (d *Detector) DetectAndStore(ctx context.Context, website string, docs []models.ExtractedDocument) (*models.BusinessProfile, error) {
	resp, err := fetch.FetchOK(ctx, d.fetcher, website)
	if err != nil {
		return nil, err
	}

	profile := d.DetectProfile(ctx, website, string(resp.Body), docs)

	stored, err := d.store.UpsertFact(ctx, profile)
	if err != nil {
		if models.IsKind(err, models.StoreFailure) {
			return nil, err
		}
		return nil, models.Fail(models.StoreFailure, "upsert profile", eris.Wrap(err, "facts: upsert profile"))
	}
	zap.L().Info("facts: profile upserted",
		zap.String("website", website),
		zap.String("id", stored.ID),
		zap.String("vertical", stored.Vertical),
	)
	return stored, nil
}
