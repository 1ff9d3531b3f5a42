// Package similarity provides the N×N cosine-similarity matrix, its on-disk
// format, and row ranking.
package similarity

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Matrix is a square matrix of pairwise similarity scores, row-major.
// Immutable once built; rebuilds replace the whole matrix.
type Matrix struct {
	n           int
	fingerprint string
	data        []float32
}

// Ranked is one ranked position from a matrix row.
type Ranked struct {
	Position int
	Score    float64
}

// FromVectors computes the pairwise cosine matrix from L2-normalized vectors.
// fingerprint binds the matrix to the catalog built from the same snapshot.
func FromVectors(vectors [][]float32, fingerprint string) *Matrix {
	n := len(vectors)
	m := &Matrix{n: n, fingerprint: fingerprint, data: make([]float32, n*n)}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = selfScore(vectors[i])
		for j := i + 1; j < n; j++ {
			var dot float64
			for k := range vectors[i] {
				dot += float64(vectors[i][k]) * float64(vectors[j][k])
			}
			s := float32(dot)
			m.data[i*n+j] = s
			m.data[j*n+i] = s
		}
	}
	return m
}

// selfScore is 1 for any non-zero normalized vector, 0 for an all-zero one
// (a movie whose soup was empty or all stop words).
func selfScore(vec []float32) float32 {
	for _, v := range vec {
		if v != 0 {
			return 1
		}
	}
	return 0
}

// Size returns N.
func (m *Matrix) Size() int { return m.n }

// Fingerprint returns the catalog fingerprint the matrix was built against.
func (m *Matrix) Fingerprint() string { return m.fingerprint }

// Score returns the similarity between positions i and j.
func (m *Matrix) Score(i, j int) float64 {
	return float64(m.data[i*m.n+j])
}

// TopK ranks all positions other than i by descending score and returns the
// first min(k, N-1). Equal scores keep catalog order (lower position first).
func (m *Matrix) TopK(i, k int) []Ranked {
	ranked := make([]Ranked, 0, m.n-1)
	for j := 0; j < m.n; j++ {
		if j == i {
			continue
		}
		ranked = append(ranked, Ranked{Position: j, Score: m.Score(i, j)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Save persists the matrix to path. Directory is created if needed.
// Format: n (4), fingerprint len (4), fingerprint bytes, then n*n float32.
func (m *Matrix) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create matrix dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer f.Close()
	return m.write(f)
}

func (m *Matrix) write(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(m.n)); err != nil {
		return fmt.Errorf("write size: %w", err)
	}
	fp := []byte(m.fingerprint)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fp))); err != nil {
		return fmt.Errorf("write fingerprint len: %w", err)
	}
	if _, err := w.Write(fp); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	buf := make([]byte, len(m.data)*4)
	for i, v := range m.data {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// Load reads a matrix from path.
func Load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()

	var n, fpLen uint32
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read size: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &fpLen); err != nil {
		return nil, fmt.Errorf("read fingerprint len: %w", err)
	}
	fp := make([]byte, fpLen)
	if _, err := io.ReadFull(f, fp); err != nil {
		return nil, fmt.Errorf("read fingerprint: %w", err)
	}
	buf := make([]byte, int(n)*int(n)*4)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	data := make([]float32, int(n)*int(n))
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : (i+1)*4]))
	}
	return &Matrix{n: int(n), fingerprint: string(fp), data: data}, nil
}
