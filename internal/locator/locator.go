// Package locator maps upload keys to the URLs at which the external
// converter publishes its output. The mapping must match the converter's
// naming exactly: same key, different bucket.
package locator

import (
	"net/url"
	"strings"
)

// Locator derives converted-object URLs from a configured base URL.
type Locator struct {
	base string
}

// New creates a Locator rooted at base, e.g.
// "https://photopass-converted.s3.ap-south-1.amazonaws.com".
func New(base string) *Locator {
	return &Locator{base: strings.TrimRight(base, "/")}
}

// ConvertedURL returns the URL of the converted counterpart of key.
func (l *Locator) ConvertedURL(key string) string {
	return l.base + "/" + url.PathEscape(key)
}

// Base returns the configured base URL without a trailing slash.
func (l *Locator) Base() string {
	return l.base
}
