package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestProfileIDIsStable(t *testing.T) {
	a := ProfileID("https://example.com")
	b := ProfileID("https://example.com")
	c := ProfileID("https://example.org")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestMergePrefersNonEmpty(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	a := BusinessProfile{Website: "https://example.com", Telephone: "+1-555-0100", LastRefreshed: older}
	b := BusinessProfile{
		Website:       "https://example.com",
		Telephone:     "+1-555-9999",
		Email:         "hi@example.com",
		Social:        []string{"https://x.com/example"},
		LastRefreshed: newer,
	}

	got := Merge(a, b)
	assert.Equal(t, "+1-555-0100", got.Telephone)
	assert.Equal(t, "hi@example.com", got.Email)
	assert.Equal(t, []string{"https://x.com/example"}, got.Social)
	assert.Equal(t, newer, got.LastRefreshed)

	// merge is deterministic
	assert.Equal(t, got, Merge(a, b))
}

func TestMenuItemKey(t *testing.T) {
	section := "Pizza"
	price := "12.90"
	a := MenuItem{Section: &section, Name: "Margherita", Price: &price}
	b := MenuItem{Section: &section, Name: "MARGHERITA", Price: &price}
	c := MenuItem{Name: "Margherita", Price: &price}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestIsKind(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("qa: answer: %w", Fail(ModelFailure, "embed", eris.Wrap(base, "ollama")))

	assert.True(t, IsKind(err, ModelFailure))
	assert.False(t, IsKind(err, FetchFailure))
	assert.False(t, IsKind(base, ModelFailure))
	assert.Contains(t, err.Error(), "connection refused")
}
