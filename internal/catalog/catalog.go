// Package catalog provides the ordered movie catalog, position-aligned with
// the similarity matrix, and its on-disk blob.
package catalog

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/susume/internal/models"
)

// Catalog is the ordered set of movies from one dataset snapshot. Position i
// here is row/column i of the matrix built from the same snapshot.
type Catalog struct {
	movies      []models.Movie
	byTitle     map[string]int
	fingerprint string
}

// Build creates a catalog from movies in dataset order. Titles are the
// user-facing lookup key, so a duplicate title fails the build.
func Build(movies []models.Movie) (*Catalog, error) {
	byTitle := make(map[string]int, len(movies))
	for i, m := range movies {
		if prev, ok := byTitle[m.Title]; ok {
			return nil, fmt.Errorf("duplicate title %q at positions %d and %d", m.Title, prev, i)
		}
		byTitle[m.Title] = i
	}
	return &Catalog{
		movies:      movies,
		byTitle:     byTitle,
		fingerprint: fingerprint(movies),
	}, nil
}

// fingerprint hashes ids and titles in order, binding a catalog to the
// matrix persisted from the same snapshot.
func fingerprint(movies []models.Movie) string {
	h := fnv.New64a()
	for _, m := range movies {
		h.Write([]byte(strconv.Itoa(m.ID)))
		h.Write([]byte{0})
		h.Write([]byte(m.Title))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.movies) }

// Fingerprint returns the snapshot fingerprint.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Position returns the position of the movie with the given title.
func (c *Catalog) Position(title string) (int, bool) {
	i, ok := c.byTitle[title]
	return i, ok
}

// At returns the movie at position i.
func (c *Catalog) At(i int) models.Movie { return c.movies[i] }

// Titles returns all titles in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.movies))
	for i, m := range c.movies {
		titles[i] = m.Title
	}
	return titles
}

// blob is the gob-encoded on-disk form.
type blob struct {
	Movies      []models.Movie
	Fingerprint string
}

// Save persists the catalog to path. Directory is created if needed.
func (c *Catalog) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(blob{Movies: c.movies, Fingerprint: c.fingerprint}); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}

// Load reads a catalog from path. Data persisted before the duplicate-title
// rule is loaded as-is; on duplicates the lowest position wins lookups.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	var b blob
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	byTitle := make(map[string]int, len(b.Movies))
	for i, m := range b.Movies {
		if _, ok := byTitle[m.Title]; !ok {
			byTitle[m.Title] = i
		}
	}
	return &Catalog{movies: b.Movies, byTitle: byTitle, fingerprint: b.Fingerprint}, nil
}
