package playlist

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/neurosense/internal/observability"
)

// Spotify finds playlists with the Spotify Web API search endpoint.
type Spotify struct {
	api *spotify.Client
}

// NewSpotify creates a Spotify finder authenticated with the client
// credentials flow. No user login is involved.
func NewSpotify(ctx context.Context, clientID, clientSecret string) (*Spotify, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return NewSpotifyWithClient(spotify.New(cfg.Client(ctx))), nil
}

// NewSpotifyWithClient wraps an already authenticated client.
func NewSpotifyWithClient(api *spotify.Client) *Spotify {
	return &Spotify{api: api}
}

// Find returns the top playlist for mood.
func (s *Spotify) Find(ctx context.Context, mood string) (Playlist, error) {
	if !ValidMood(mood) {
		return Playlist{}, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}

	start := time.Now()
	result, err := s.api.Search(ctx, Query(mood), spotify.SearchTypePlaylist, spotify.Limit(1))
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ExternalRequestDuration.
		WithLabelValues("spotify", status).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return Playlist{}, fmt.Errorf("searching spotify: %w", err)
	}

	if result.Playlists == nil {
		return Playlist{}, ErrNotFound
	}
	for _, p := range result.Playlists.Playlists {
		url := p.ExternalURLs["spotify"]
		if url == "" {
			continue
		}
		return Playlist{Title: p.Name, URL: url}, nil
	}
	return Playlist{}, ErrNotFound
}
