// Package feeds defines the adapter contract every data source implements.
// Concrete adapters live in one subpackage per provider.
package feeds

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abelbrown/skydeck/internal/model"
)

// Adapter loads one feed and knows its fallback set.
type Adapter interface {
	// Name is the feed key ("station", "launches-upcoming", ...).
	Name() string

	// Kind is the record variant this adapter produces.
	Kind() model.Kind

	// Load fetches and normalizes live data. An empty result after
	// filtering is reported as a fetch.KindEmpty error.
	Load(ctx context.Context, now time.Time) ([]model.Record, error)

	// Fallback returns the documented substitute set. Never empty.
	Fallback(now time.Time) []model.Record
}

// Getter is the subset of *fetch.Client adapters use.
type Getter interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
	GetRaw(ctx context.Context, rawURL string, query url.Values) ([]byte, error)
}

// StableID hashes parts into a short deterministic identifier.
func StableID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%x", sum)[:16]
}

// Truncate shortens s to at most maxLen runes, ending with "...".
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
