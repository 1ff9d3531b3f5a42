package benchmark

import (
	"fmt"
	"testing"

	"github.com/hyperjump/susume/internal/similarity"
	"github.com/hyperjump/susume/internal/soup"
)

func syntheticSoups(n int) []string {
	words := []string{"space", "robot", "love", "war", "heist", "desert", "ocean", "spy", "alien", "noir"}
	soups := make([]string, n)
	for i := 0; i < n; i++ {
		soups[i] = fmt.Sprintf("%s %s %s director%d actor%d",
			words[i%len(words)], words[(i+3)%len(words)], words[(i+7)%len(words)], i%17, i%29)
	}
	return soups
}

func BenchmarkVectorize(b *testing.B) {
	vectorizer, err := soup.NewVectorizer()
	if err != nil {
		b.Fatal(err)
	}
	soups := syntheticSoups(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = vectorizer.Vectorize(soups)
	}
}

func BenchmarkMatrixBuild(b *testing.B) {
	vectorizer, err := soup.NewVectorizer()
	if err != nil {
		b.Fatal(err)
	}
	vectors, _ := vectorizer.Vectorize(syntheticSoups(500))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = similarity.FromVectors(vectors, "bench")
	}
}

func BenchmarkTopK(b *testing.B) {
	vectorizer, err := soup.NewVectorizer()
	if err != nil {
		b.Fatal(err)
	}
	vectors, _ := vectorizer.Vectorize(syntheticSoups(1000))
	m := similarity.FromVectors(vectors, "bench")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.TopK(i%1000, 10)
	}
}
