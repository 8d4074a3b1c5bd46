package service

import (
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const defaultFilename = "upload"

// KeyGenerator derives storage keys of the form "<millis>-<filename>". The
// millisecond prefix is strictly increasing within the process: when the
// clock has not moved past the last issued value, the last value plus one
// is used instead, so two uploads never share a key.
type KeyGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewKeyGenerator creates a KeyGenerator. A nil clock uses time.Now.
func NewKeyGenerator(now func() time.Time) *KeyGenerator {
	if now == nil {
		now = time.Now
	}
	return &KeyGenerator{now: now}
}

// Next returns a fresh key for filename.
func (g *KeyGenerator) Next(filename string) string {
	return strconv.FormatInt(g.nextMillis(), 10) + "-" + SanitizeFilename(filename)
}

func (g *KeyGenerator) nextMillis() int64 {
	for {
		now := g.now().UnixMilli()
		last := g.last.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// SanitizeFilename strips any directory components a client may have sent
// and substitutes a default for empty names.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return defaultFilename
	}
	return name
}
