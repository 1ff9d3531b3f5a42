// Package soup builds the per-movie token "soup" and vectorizes it into
// term-frequency vectors for the similarity build.
package soup

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/hyperjump/susume/internal/dataset"
	"github.com/hyperjump/susume/pkg/utils"
)

// Build returns the soup string for one row: keywords, cast, director, and
// genres, each collapsed to a single lowercase token and space-joined.
func Build(r dataset.Row) string {
	tokens := make([]string, 0, len(r.Keywords)+len(r.Cast)+1+len(r.Genres))
	for _, k := range r.Keywords {
		tokens = append(tokens, utils.CollapseToken(k))
	}
	for _, c := range r.Cast {
		tokens = append(tokens, utils.CollapseToken(c))
	}
	if r.Director != "" {
		tokens = append(tokens, utils.CollapseToken(r.Director))
	}
	for _, g := range r.Genres {
		tokens = append(tokens, utils.CollapseToken(g))
	}
	return strings.Join(tokens, " ")
}

// Vectorizer turns soup strings into L2-normalized term-frequency vectors
// over a shared vocabulary, excluding English stop words.
type Vectorizer struct {
	stop map[string]bool
}

// NewVectorizer creates a vectorizer with Bleve's English stop-word set.
func NewVectorizer() (*Vectorizer, error) {
	stop, err := en.TokenMapConstructor(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("load stop words: %w", err)
	}
	return &Vectorizer{stop: stop}, nil
}

// Vectorize builds the vocabulary across all soups and returns one normalized
// vector per soup plus the vocabulary size. Vectors are unit length, so the
// dot product of two vectors is their cosine similarity.
func (v *Vectorizer) Vectorize(soups []string) ([][]float32, int) {
	vocab := make(map[string]int)
	tokenized := make([][]string, len(soups))
	for i, s := range soups {
		tokens := strings.Fields(s)
		kept := tokens[:0]
		for _, tok := range tokens {
			if v.stop[tok] {
				continue
			}
			kept = append(kept, tok)
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
		tokenized[i] = kept
	}

	vectors := make([][]float32, len(soups))
	for i, tokens := range tokenized {
		vec := make([]float32, len(vocab))
		for _, tok := range tokens {
			vec[vocab[tok]]++
		}
		utils.NormalizeL2(vec)
		vectors[i] = vec
	}
	return vectors, len(vocab)
}
