// Package titles provides a Bleve index over catalog titles for the
// select-movie search box. Recommendation lookup stays exact-title; this
// index only helps the user find a title to select.
package titles

import (
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/susume/internal/models"
)

// titleDoc is the indexed document; the document ID is the title itself.
type titleDoc struct {
	Title string `json:"title"`
}

// Index is a searchable index of catalog titles, rebuilt wholesale alongside
// the catalog.
type Index struct {
	mu    sync.Mutex
	path  string
	index bleve.Index
}

func indexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so partial title
	// words match exactly what the user typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.AddDocumentMapping("title", docMapping)
	im.DefaultType = "title"
	im.DefaultMapping = docMapping
	return im
}

// Open opens the index at path, creating an empty one when absent.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open title index: %w", openErr)
		}
		return &Index{path: path, index: index}, nil
	}
	index, err := bleve.New(path, indexMapping())
	if err != nil {
		return nil, fmt.Errorf("create title index: %w", err)
	}
	return &Index{path: path, index: index}, nil
}

// Rebuild replaces the index contents with the given titles.
func (ix *Index) Rebuild(titles []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.index.Close(); err != nil {
		return fmt.Errorf("close title index: %w", err)
	}
	if err := os.RemoveAll(ix.path); err != nil {
		return fmt.Errorf("remove title index: %w", err)
	}
	index, err := bleve.New(ix.path, indexMapping())
	if err != nil {
		return fmt.Errorf("recreate title index: %w", err)
	}
	batch := index.NewBatch()
	for _, title := range titles {
		if err := batch.Index(title, titleDoc{Title: title}); err != nil {
			_ = index.Close()
			return fmt.Errorf("batch title %q: %w", title, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("index titles: %w", err)
	}
	ix.index = index
	return nil
}

// Search returns up to limit title matches for q. When the exact match query
// finds nothing, a fuzzy query is retried for typo tolerance.
func (ix *Index) Search(q string, limit int) ([]models.TitleMatch, error) {
	ix.mu.Lock()
	index := ix.index
	ix.mu.Unlock()

	matches, err := runQuery(index, bleve.NewMatchQuery(q), limit)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}
	fuzzy := bleve.NewFuzzyQuery(q)
	fuzzy.SetFuzziness(2)
	return runQuery(index, fuzzy, limit)
}

func runQuery(index bleve.Index, q blevequery.Query, limit int) ([]models.TitleMatch, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	out := make([]models.TitleMatch, 0, len(results.Hits))
	for _, hit := range results.Hits {
		out = append(out, models.TitleMatch{Title: hit.ID, Score: hit.Score})
	}
	return out, nil
}

// Count returns the number of indexed titles.
func (ix *Index) Count() (uint64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.DocCount()
}

// Close closes the underlying index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
