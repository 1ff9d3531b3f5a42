package library

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/dataset"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
	"github.com/hyperjump/susume/internal/soup"
	"github.com/hyperjump/susume/internal/titles"
)

// Rebuilder runs the batch transform: dataset CSV -> catalog + matrix,
// persisted as a pair. It is only invoked when the freshness monitor signals
// staleness, never on the normal request path.
type Rebuilder struct {
	datasetPath string
	catalogPath string
	matrixPath  string
	vectorizer  *soup.Vectorizer
	titleIndex  *titles.Index
	logger      *zap.Logger
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder)

// WithLogger sets a logger for debug output (row counts, timings).
func WithLogger(l *zap.Logger) RebuilderOption {
	return func(r *Rebuilder) { r.logger = l }
}

// WithTitleIndex sets the title index to rebuild alongside the pair.
func WithTitleIndex(ix *titles.Index) RebuilderOption {
	return func(r *Rebuilder) { r.titleIndex = ix }
}

// NewRebuilder creates a rebuilder reading from datasetPath and persisting
// the pair at catalogPath/matrixPath.
func NewRebuilder(datasetPath, catalogPath, matrixPath string, opts ...RebuilderOption) (*Rebuilder, error) {
	vectorizer, err := soup.NewVectorizer()
	if err != nil {
		return nil, err
	}
	r := &Rebuilder{
		datasetPath: datasetPath,
		catalogPath: catalogPath,
		matrixPath:  matrixPath,
		vectorizer:  vectorizer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CatalogPath returns where the catalog blob is persisted.
func (r *Rebuilder) CatalogPath() string { return r.catalogPath }

// MatrixPath returns where the matrix blob is persisted.
func (r *Rebuilder) MatrixPath() string { return r.matrixPath }

// Rebuild parses the dataset, builds the catalog and cosine matrix, persists
// both (temp file + rename, so a crash never leaves a half-written blob),
// refreshes the title index, and returns the new snapshot. The caller swaps
// it into the Library and marks the freshness record.
func (r *Rebuilder) Rebuild(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	rows, err := dataset.ParseFile(ctx, r.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	movies := make([]models.Movie, len(rows))
	soups := make([]string, len(rows))
	for i, row := range rows {
		movies[i] = row.Movie
		soups[i] = soup.Build(row)
	}

	cat, err := catalog.Build(movies)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	vectors, vocab := r.vectorizer.Vectorize(soups)
	mat := similarity.FromVectors(vectors, cat.Fingerprint())

	if err := r.persistPair(cat, mat); err != nil {
		return nil, err
	}

	if r.titleIndex != nil {
		if err := r.titleIndex.Rebuild(cat.Titles()); err != nil {
			return nil, fmt.Errorf("rebuild title index: %w", err)
		}
	}

	if r.logger != nil {
		r.logger.Info("library rebuilt",
			zap.Int("movies", cat.Len()),
			zap.Int("vocabulary", vocab),
			zap.Duration("took", time.Since(start)),
		)
	}
	return &Snapshot{Catalog: cat, Matrix: mat}, nil
}

// persistPair writes both blobs to temp files and renames them into place,
// replacing any prior pair.
func (r *Rebuilder) persistPair(cat *catalog.Catalog, mat *similarity.Matrix) error {
	catTmp := r.catalogPath + ".tmp"
	matTmp := r.matrixPath + ".tmp"
	if err := cat.Save(catTmp); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	if err := mat.Save(matTmp); err != nil {
		return fmt.Errorf("persist matrix: %w", err)
	}
	if err := os.Rename(catTmp, r.catalogPath); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	if err := os.Rename(matTmp, r.matrixPath); err != nil {
		return fmt.Errorf("replace matrix: %w", err)
	}
	return nil
}
