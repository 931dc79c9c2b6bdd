package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Business verticals.
const (
	VerticalRestaurant = "restaurant"
	VerticalEcommerce  = "ecommerce"
	VerticalGeneric    = "generic"
)

// MaxMenuItems bounds the menu payload stored on a profile.
const MaxMenuItems = 200

// MenuItem is a structured menu line.
type MenuItem struct {
	Section *string `json:"section"`
	Name    string  `json:"name"`
	Price   *string `json:"price"`
}

// Key returns the identity used to de-duplicate items within a profile.
func (m MenuItem) Key() string {
	var section, price string
	if m.Section != nil {
		section = *m.Section
	}
	if m.Price != nil {
		price = *m.Price
	}
	return section + "\x00" + strings.ToLower(m.Name) + "\x00" + price
}

// BusinessProfile holds the structured facts known about one website.
// Absent facts are empty, never guessed.
type BusinessProfile struct {
	ID            string     `json:"id"`
	Website       string     `json:"website"`
	Name          string     `json:"name,omitempty"`
	Telephone     string     `json:"telephone,omitempty"`
	Email         string     `json:"email,omitempty"`
	Address       string     `json:"address,omitempty"`
	Geo           string     `json:"geo,omitempty"`
	OpeningHours  []string   `json:"openingHours,omitempty"`
	PriceRange    string     `json:"priceRange,omitempty"`
	Social        []string   `json:"social,omitempty"`
	Vertical      string     `json:"vertical"`
	MenuURLs      []string   `json:"menuUrls,omitempty"`
	MenuItems     []MenuItem `json:"menuItems,omitempty"`
	Cuisines      []string   `json:"cuisines,omitempty"`
	LastRefreshed time.Time  `json:"lastRefreshed"`
}

// ProfileID derives the stable record identifier for a website, so repeated
// detection runs replace the same record.
func ProfileID(website string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(website)).String()
}

// NewProfile returns an empty generic profile for website.
func NewProfile(website string) BusinessProfile {
	return BusinessProfile{
		ID:       ProfileID(website),
		Website:  website,
		Vertical: VerticalGeneric,
	}
}

// Merge combines two partial profiles field by field, keeping a's value when
// both are non-empty. Identity fields come from a when set.
func Merge(a, b BusinessProfile) BusinessProfile {
	out := a
	out.ID = firstString(a.ID, b.ID)
	out.Website = firstString(a.Website, b.Website)
	out.Name = firstString(a.Name, b.Name)
	out.Telephone = firstString(a.Telephone, b.Telephone)
	out.Email = firstString(a.Email, b.Email)
	out.Address = firstString(a.Address, b.Address)
	out.Geo = firstString(a.Geo, b.Geo)
	out.PriceRange = firstString(a.PriceRange, b.PriceRange)
	out.Vertical = firstString(a.Vertical, b.Vertical)
	out.OpeningHours = firstSlice(a.OpeningHours, b.OpeningHours)
	out.Social = firstSlice(a.Social, b.Social)
	out.MenuURLs = firstSlice(a.MenuURLs, b.MenuURLs)
	out.Cuisines = firstSlice(a.Cuisines, b.Cuisines)
	if len(a.MenuItems) == 0 {
		out.MenuItems = b.MenuItems
	}
	if a.LastRefreshed.Before(b.LastRefreshed) {
		out.LastRefreshed = b.LastRefreshed
	}
	return out
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstSlice(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

// MenuResult is what the menu pipeline contributes to a restaurant profile.
type MenuResult struct {
	MenuURLs  []string
	MenuItems []MenuItem
}
