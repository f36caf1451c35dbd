// Package playlist finds a music playlist that matches a mood.
package playlist

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a search yields no playlist.
	ErrNotFound = errors.New("no playlist found")

	// ErrUnknownMood is returned for moods outside Moods.
	ErrUnknownMood = errors.New("unknown mood")

	// ErrMissingAPIKey is returned when a provider has no credentials.
	ErrMissingAPIKey = errors.New("missing playlist provider credentials")
)

// Moods lists the moods offered for playlist lookup, in display order.
var Moods = []string{
	"Happy",
	"Sad",
	"Relaxed",
	"Anger",
	"Stressed",
	"Energetic",
	"Motivated",
	"Calm",
}

// Playlist is a single search hit.
type Playlist struct {
	Title string
	URL   string
}

// Finder looks up one playlist for a mood.
type Finder interface {
	Find(ctx context.Context, mood string) (Playlist, error)
}

// ValidMood reports whether mood is one of Moods.
func ValidMood(mood string) bool {
	return slices.Contains(Moods, mood)
}

// Query returns the search query used for mood.
func Query(mood string) string {
	return strings.ToLower(mood) + " music playlist"
}

// timeoutFinder bounds every lookup of the wrapped Finder.
type timeoutFinder struct {
	finder  Finder
	timeout time.Duration
}

// WithTimeout wraps finder so each Find call is cancelled after d.
func WithTimeout(finder Finder, d time.Duration) Finder {
	if d <= 0 {
		return finder
	}
	return &timeoutFinder{finder: finder, timeout: d}
}

func (t *timeoutFinder) Find(ctx context.Context, mood string) (Playlist, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.finder.Find(ctx, mood)
}
