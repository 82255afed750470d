// Package panelpath builds the URL prefix under which the editorial panel is served.
//
// The prefix is derived deterministically from a seed so that it is not guessable
// from the public site's links. This is obfuscation, not access control: anyone who
// knows or derives the seed can reach the panel pages, and the panel's data is only
// protected by the news API's own token verification.
package panelpath

import (
	"encoding/base64"
)

// DefaultSeed is used when no PANEL_SEED is configured
const DefaultSeed = "rva-2025"

// Segment encodes the seed into the opaque path segment that identifies the panel
func Segment(seed string) string {
	return base64.RawURLEncoding.EncodeToString([]byte("panel:" + seed + ":v1"))
}

// Base returns the panel's base path, e.g. /p/cGFuZWw6cnZhLTIwMjU6djE
func Base(seed string) string {
	return "/p/" + Segment(seed)
}

// Login returns the path of the panel's login page
func Login(seed string) string {
	return Base(seed) + "/login"
}
