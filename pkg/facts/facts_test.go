package facts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/siteqa/internal/models"
	"github.com/xhad/siteqa/internal/types"
)

type fakeFetcher map[string]*types.Response

func (f fakeFetcher) Fetch(_ context.Context, url string) (*types.Response, error) {
	if r, ok := f[url]; ok {
		return r, nil
	}
	return nil, models.Fail(models.FetchFailure, url, errors.New("connection refused"))
}

func htmlResponse(url, body string) *types.Response {
	return &types.Response{URL: url, Body: []byte(body), ContentType: "text/html", StatusCode: http.StatusOK}
}

type fakeFactStore struct {
	upserts []models.BusinessProfile
	err     error
}

func (s *fakeFactStore) UpsertFact(_ context.Context, p models.BusinessProfile) (*models.BusinessProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.upserts = append(s.upserts, p)
	return &p, nil
}

func (s *fakeFactStore) GetFact(context.Context, string) (*models.BusinessProfile, error) {
	return nil, nil
}

func (s *fakeFactStore) Exists(context.Context, string) (bool, error) { return false, nil }

type fakeMenu struct{ calls int }

func (m *fakeMenu) ExtractMenu(context.Context, string, string) models.MenuResult {
	m.calls++
	price := "12.90"
	return models.MenuResult{
		MenuURLs:  []string{"https://luigi.example/menu.pdf"},
		MenuItems: []models.MenuItem{{Name: "Margherita Pizza", Price: &price}},
	}
}

const restaurantHome = `<html><head><title>Luigi's</title>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Restaurant","name":"Luigi's","telephone":"+49 30 1234567"}</script>
</head><body><h1>Luigi's restaurant</h1><a href="/menu">Menu</a></body></html>`

func TestDetectProfileRestaurantJSONLD(t *testing.T) {
	menu := &fakeMenu{}
	d := NewDetector(fakeFetcher{}, &fakeFactStore{}, menu)

	p := d.DetectProfile(context.Background(), "https://luigi.example", restaurantHome, nil)

	assert.Equal(t, models.ProfileID("https://luigi.example"), p.ID)
	assert.Equal(t, "Luigi's", p.Name)
	assert.Equal(t, "+49 30 1234567", p.Telephone)
	assert.Equal(t, models.VerticalRestaurant, p.Vertical)
	assert.Equal(t, 1, menu.calls)
	require.Len(t, p.MenuItems, 1)
	assert.Equal(t, "Margherita Pizza", p.MenuItems[0].Name)
}

func TestDetectProfileSkipsMenuForOtherVerticals(t *testing.T) {
	menu := &fakeMenu{}
	d := NewDetector(fakeFetcher{}, &fakeFactStore{}, menu)

	p := d.DetectProfile(context.Background(), "https://law.example", "<p>We are a law firm</p>", nil)

	assert.Equal(t, models.VerticalGeneric, p.Vertical)
	assert.Zero(t, menu.calls)
	assert.Empty(t, p.MenuItems)
}

func TestDetectProfileRegexFallback(t *testing.T) {
	html := `<html><body><p>Write to info@shop.example or call +44 20 7946 0958 today.</p>
		<script type="application/ld+json">{broken</script>
		<p>Browse our products</p></body></html>`

	p := NewDetector(nil, nil, nil).DetectProfile(context.Background(), "https://shop.example", html, nil)

	assert.Equal(t, "info@shop.example", p.Email)
	assert.Equal(t, "+44 20 7946 0958", p.Telephone)
	assert.Equal(t, models.VerticalEcommerce, p.Vertical)
}

func TestDetectProfileStructuredWinsOverRegex(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Organization","email":"mailto:hello@org.example"}</script>
		<p>old@org.example 030 555 1234</p>`

	p := NewDetector(nil, nil, nil).DetectProfile(context.Background(), "https://org.example", html, nil)

	assert.Equal(t, "hello@org.example", p.Email)
	assert.Equal(t, "030 555 1234", p.Telephone)
}

func TestAddressPrefersContactPages(t *testing.T) {
	docs := []models.ExtractedDocument{
		{URL: "https://x.example/blog", Text: "Visit 99 Fake Street, Springfield 54321 for the sale"},
		{URL: "https://x.example/kontakt", Text: "Adresse: 12   Hauptstrasse Berlin 10115"},
	}

	p := NewDetector(nil, nil, nil).DetectProfile(context.Background(), "https://x.example", "<p></p>", docs)
	assert.Equal(t, "12 Hauptstrasse Berlin 10115", p.Address)
}

func TestAddressFallsBackToPOBox(t *testing.T) {
	docs := []models.ExtractedDocument{
		{URL: "https://gulf.example/about", Text: "Head office: P.O. Box 12345, Jebel Ali, Dubai. Open daily."},
	}

	p := NewDetector(nil, nil, nil).DetectProfile(context.Background(), "https://gulf.example", "<p></p>", docs)
	assert.Equal(t, "P.O. Box 12345, Jebel Ali, Dubai", p.Address)
}

func TestNoAddressStaysEmpty(t *testing.T) {
	docs := []models.ExtractedDocument{{URL: "https://x.example/about", Text: "We love coffee."}}

	p := NewDetector(nil, nil, nil).DetectProfile(context.Background(), "https://x.example", "<p>hello</p>", docs)
	assert.Empty(t, p.Address)
}

func TestDetectAndStore(t *testing.T) {
	website := "https://luigi.example"
	store := &fakeFactStore{}
	d := NewDetector(fakeFetcher{website: htmlResponse(website, restaurantHome)}, store, nil)

	p, err := d.DetectAndStore(context.Background(), website, nil)
	require.NoError(t, err)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, models.ProfileID(website), store.upserts[0].ID)
	assert.Equal(t, "+49 30 1234567", p.Telephone)
}

func TestDetectAndStoreHomepageUnreachable(t *testing.T) {
	store := &fakeFactStore{}
	d := NewDetector(fakeFetcher{}, store, nil)

	_, err := d.DetectAndStore(context.Background(), "https://down.example", nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.FetchFailure))
	assert.Empty(t, store.upserts)
}

func TestDetectAndStoreStoreFailure(t *testing.T) {
	website := "https://luigi.example"
	d := NewDetector(fakeFetcher{website: htmlResponse(website, restaurantHome)}, &fakeFactStore{err: errors.New("db down")}, nil)

	_, err := d.DetectAndStore(context.Background(), website, nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.StoreFailure))
}

func TestJSONLDGraphAndPostalAddress(t *testing.T) {
	html := `<script type="application/ld+json">[{"@type":"WebSite","name":"ignored"}]</script>
	<script type="application/ld+json">{"@graph":[{"@type":["Restaurant","LocalBusiness"],"name":"Cafe Blau",
		"address":{"@type":"PostalAddress","streetAddress":"Hauptstr. 1","postalCode":"10115","addressLocality":"Berlin","addressCountry":{"@type":"Country","name":"DE"}},
		"geo":{"latitude":52.52,"longitude":"13.40"},
		"openingHours":["Mo-Fr 09:00-18:00","Sa 10:00-14:00"],
		"sameAs":"https://instagram.com/cafeblau",
		"servesCuisine":["German","Coffee"],
		"priceRange":"$$"}]}</script>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	p, ok := profileFromJSONLD(JSONLDObjects(doc))
	require.True(t, ok)
	assert.Equal(t, "Cafe Blau", p.Name)
	assert.Equal(t, "Hauptstr. 1, 10115 Berlin, DE", p.Address)
	assert.Equal(t, "52.52,13.40", p.Geo)
	assert.Equal(t, []string{"Mo-Fr 09:00-18:00", "Sa 10:00-14:00"}, p.OpeningHours)
	assert.Equal(t, []string{"https://instagram.com/cafeblau"}, p.Social)
	assert.Equal(t, []string{"German", "Coffee"}, p.Cuisines)
	assert.Equal(t, "$$", p.PriceRange)
}
