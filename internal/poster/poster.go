// Package poster resolves movie poster image URLs via the TMDB API.
package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Resolver looks up poster URLs for movie IDs. Lookups are best-effort: any
// failure yields an empty URL, never an error, so a dead or slow poster API
// cannot take down a recommendation response.
type Resolver struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	client       *http.Client
	logger       *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a logger for debug output on failed lookups.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithClient sets the HTTP client. The default client has no timeout, so
// callers normally pass one built from config.
func WithClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// NewResolver creates a resolver against the given TMDB API base URL.
// imageBaseURL is prepended to the poster path returned by the API.
func NewResolver(apiKey, baseURL, imageBaseURL string, opts ...Option) *Resolver {
	r := &Resolver{
		apiKey:       apiKey,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		client:       http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// movieDetails is the subset of the TMDB movie response we read.
type movieDetails struct {
	PosterPath string `json:"poster_path"`
}

// Resolve returns the poster image URL for the given TMDB movie ID, or ""
// when the lookup fails or the movie has no poster.
func (r *Resolver) Resolve(ctx context.Context, movieID int) string {
	if r.apiKey == "" {
		return ""
	}
	u := fmt.Sprintf("%s/movie/%d?api_key=%s&language=en-US",
		r.baseURL, movieID, url.QueryEscape(r.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		r.debug("poster request build failed", movieID, err)
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.debug("poster request failed", movieID, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.debug("poster request rejected", movieID, fmt.Errorf("status %d", resp.StatusCode))
		return ""
	}
	var details movieDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		r.debug("poster response decode failed", movieID, err)
		return ""
	}
	if details.PosterPath == "" {
		return ""
	}
	return r.imageBaseURL + details.PosterPath
}

func (r *Resolver) debug(msg string, movieID int, err error) {
	if r.logger != nil {
		r.logger.Debug(msg, zap.Int("movie_id", movieID), zap.Error(err))
	}
}
