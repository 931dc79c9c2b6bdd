package facts

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
)

// fallbackContacts returns the first email-shaped and the first phone-shaped
// token of raw homepage HTML.
func fallbackContacts(html string) (email, phone string) {
	email = emailRe.FindString(html)
	phone = strings.TrimSpace(phoneRe.FindString(html))
	return email, phone
}
