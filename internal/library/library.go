// Package library holds the in-memory catalog + similarity matrix pair and
// the rebuild pipeline that regenerates it from the dataset.
package library

import (
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
)

// Snapshot is one consistent catalog/matrix pair derived from a single
// dataset state. Position i of the catalog is row i of the matrix.
type Snapshot struct {
	Catalog *catalog.Catalog
	Matrix  *similarity.Matrix
}

// Library holds the current snapshot behind an atomic pointer. Rebuilds
// build a complete new snapshot and swap it wholesale; readers take the
// pointer once and never observe a mixed pair.
type Library struct {
	current atomic.Pointer[Snapshot]
}

// New creates a library holding the given snapshot.
func New(s *Snapshot) *Library {
	l := &Library{}
	l.current.Store(s)
	return l
}

// Snapshot returns the current catalog/matrix pair.
func (l *Library) Snapshot() *Snapshot {
	return l.current.Load()
}

// Swap replaces the current snapshot.
func (l *Library) Swap(s *Snapshot) {
	l.current.Store(s)
}

// LoadSnapshot reads the persisted catalog and matrix pair. A missing file
// or a fingerprint mismatch between the two wraps models.ErrDataUnavailable:
// serving a catalog against a matrix from a different snapshot would pair
// position i with the wrong row.
func LoadSnapshot(catalogPath, matrixPath string) (*Snapshot, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	mat, err := similarity.Load(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, err)
	}
	if mat.Fingerprint() != cat.Fingerprint() {
		return nil, fmt.Errorf("%w: catalog/matrix fingerprint mismatch (%s vs %s)",
			models.ErrDataUnavailable, cat.Fingerprint(), mat.Fingerprint())
	}
	if mat.Size() != cat.Len() {
		return nil, fmt.Errorf("%w: catalog has %d movies, matrix is %d×%d",
			models.ErrDataUnavailable, cat.Len(), mat.Size(), mat.Size())
	}
	return &Snapshot{Catalog: cat, Matrix: mat}, nil
}
