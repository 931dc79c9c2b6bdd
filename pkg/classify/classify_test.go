package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerticalRules(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"<h1>Our Menu</h1><p>Best Restaurant in town</p>", "restaurant"},
		{"Cafe Luna - see the MENU", "restaurant"},
		{"menu only, nothing else", "generic"},
		{"Browse our products", "ecommerce"},
		{"Visit the shop", "ecommerce"},
		{"We are a law firm", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, VerticalRules.Label(tt.text))
		})
	}
}

func TestIntentPriority(t *testing.T) {
	label, ok := IntentRules.Match("What is your phone number and address?")
	assert.True(t, ok)
	assert.Equal(t, IntentPhone, label)

	label, _ = IntentRules.Match("Where can I email you?")
	assert.Equal(t, IntentEmail, label)

	label, _ = IntentRules.Match("Where are you located?")
	assert.Equal(t, IntentAddress, label)

	label, _ = IntentRules.Match("Can I see the menu?")
	assert.Equal(t, IntentMenu, label)

	_, ok = IntentRules.Match("Do you have parking?")
	assert.False(t, ok)
}

func TestSectionHeadersAreExact(t *testing.T) {
	_, ok := SectionHeaders.Match("Desserts")
	assert.True(t, ok)
	_, ok = SectionHeaders.Match("main courses")
	assert.True(t, ok)
	_, ok = SectionHeaders.Match("Pizza Margherita")
	assert.False(t, ok)
}
