// Package recommend ranks similar movies from the current library snapshot.
package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/library"
	"github.com/hyperjump/susume/internal/models"
)

// PosterResolver resolves a poster image URL for a movie ID. An empty string
// means no poster could be resolved.
type PosterResolver interface {
	Resolve(ctx context.Context, movieID int) string
}

// Engine produces recommendations against the library's current snapshot.
type Engine struct {
	lib     *library.Library
	posters PosterResolver
	topN    int
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPosters sets the poster resolver. Without one, poster URLs are empty.
func WithPosters(p PosterResolver) Option {
	return func(e *Engine) { e.posters = p }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine recommending up to topN movies per request.
func NewEngine(lib *library.Library, topN int, opts ...Option) *Engine {
	e := &Engine{lib: lib, topN: topN}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns the movies most similar to the given exact title, best
// first. Returns models.ErrTitleNotFound when the title is not in the
// catalog and models.ErrDataUnavailable when no snapshot is loaded. Poster
// lookups are per-item best-effort and never fail the request.
func (e *Engine) Recommend(ctx context.Context, title string) ([]models.Recommendation, error) {
	snap := e.lib.Snapshot()
	if snap == nil {
		return nil, models.ErrDataUnavailable
	}
	pos, ok := snap.Catalog.Position(title)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrTitleNotFound, title)
	}

	ranked := snap.Matrix.TopK(pos, e.topN)
	results := make([]models.Recommendation, 0, len(ranked))
	for _, r := range ranked {
		movie := snap.Catalog.At(r.Position)
		rec := models.Recommendation{Movie: movie, Score: r.Score}
		if e.posters != nil {
			rec.PosterURL = e.posters.Resolve(ctx, movie.ID)
		}
		results = append(results, rec)
	}
	if e.logger != nil {
		e.logger.Debug("recommendations built",
			zap.String("title", title),
			zap.Int("results", len(results)),
		)
	}
	return results, nil
}
