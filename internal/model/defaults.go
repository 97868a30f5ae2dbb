package model

import (
	"fmt"
	"math/rand/v2"
	"net/url"
)

// Placeholders substituted when a provider omits a field.
const (
	DefaultTitle       = "Unknown Position"
	DefaultCompany     = "Unknown Company"
	DefaultLocation    = "Location not specified"
	DefaultDescription = "No description available"
	DefaultApplyURL    = "#"
)

const avatarBaseURL = "https://ui-avatars.com/api/"

// AvatarURL returns a placeholder logo for company rendered on the given
// background colour (six hex digits, no leading #).
func AvatarURL(company, background string) string {
	return fmt.Sprintf("%s?name=%s&background=%s&color=fff", avatarBaseURL, url.QueryEscape(company), background)
}

// RandomColor returns a random six-digit hex colour.
func RandomColor() string {
	return fmt.Sprintf("%06x", rand.IntN(1<<24))
}
