package playlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/justestif/neurosense/internal/observability"
)

const youtubePlaylistURL = "https://www.youtube.com/playlist?list="

// YouTube finds playlists with the YouTube Data API search endpoint.
type YouTube struct {
	svc *youtube.Service
}

// NewYouTube creates a YouTube finder. Extra client options are appended
// after the API key, so tests can point the service at a local server.
func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

// Find returns the top playlist for mood.
func (y *YouTube) Find(ctx context.Context, mood string) (Playlist, error) {
	if !ValidMood(mood) {
		return Playlist{}, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}

	start := time.Now()
	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(Query(mood)).
		Type("playlist").
		MaxResults(1).
		Context(ctx).
		Do()
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ExternalRequestDuration.
		WithLabelValues("youtube", status).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return Playlist{}, fmt.Errorf("searching youtube: %w", err)
	}

	for _, item := range resp.Items {
		if item.Id == nil || item.Id.PlaylistId == "" {
			continue
		}
		title := mood + " playlist"
		if item.Snippet != nil && strings.TrimSpace(item.Snippet.Title) != "" {
			title = item.Snippet.Title
		}
		return Playlist{Title: title, URL: youtubePlaylistURL + item.Id.PlaylistId}, nil
	}
	return Playlist{}, ErrNotFound
}
