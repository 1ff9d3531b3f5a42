package similarity

import (
	"path/filepath"
	"testing"
)

// vectors over a 3-token vocabulary; v0 and v1 identical, v2 disjoint.
func testVectors() [][]float32 {
	return [][]float32{
		{1, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func TestFromVectorsScores(t *testing.T) {
	m := FromVectors(testVectors(), "fp")
	if m.Size() != 4 {
		t.Fatalf("size: got %d, want 4", m.Size())
	}
	if m.Score(0, 1) != 1 {
		t.Errorf("identical vectors: got %f, want 1", m.Score(0, 1))
	}
	if m.Score(0, 2) != 0 {
		t.Errorf("disjoint vectors: got %f, want 0", m.Score(0, 2))
	}
	if m.Score(1, 0) != m.Score(0, 1) {
		t.Error("matrix not symmetric")
	}
	if m.Score(0, 0) != 1 {
		t.Errorf("self score: got %f, want 1", m.Score(0, 0))
	}
}

func TestTopKExcludesSelf(t *testing.T) {
	m := FromVectors(testVectors(), "fp")
	for i := 0; i < m.Size(); i++ {
		for _, r := range m.TopK(i, m.Size()) {
			if r.Position == i {
				t.Errorf("TopK(%d) contains self", i)
			}
		}
	}
}

func TestTopKLength(t *testing.T) {
	m := FromVectors(testVectors(), "fp")
	if got := len(m.TopK(0, 10)); got != 3 {
		t.Errorf("length: got %d, want min(10, N-1)=3", got)
	}
	if got := len(m.TopK(0, 2)); got != 2 {
		t.Errorf("length: got %d, want 2", got)
	}
}

func TestTopKOrderAndStability(t *testing.T) {
	// Row 0 scores: pos1=1.0, pos2=0.0, pos3=0.0. Ties (pos2, pos3) must
	// keep catalog order.
	m := FromVectors(testVectors(), "fp")
	ranked := m.TopK(0, 3)
	if ranked[0].Position != 1 {
		t.Errorf("best: got position %d, want 1", ranked[0].Position)
	}
	if ranked[1].Position != 2 || ranked[2].Position != 3 {
		t.Errorf("tie order: got %d, %d, want 2, 3", ranked[1].Position, ranked[2].Position)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Error("scores not descending")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "similarity.bin")
	m := FromVectors(testVectors(), "catalog-fp")
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != m.Size() {
		t.Fatalf("size: got %d, want %d", loaded.Size(), m.Size())
	}
	if loaded.Fingerprint() != "catalog-fp" {
		t.Errorf("fingerprint: got %q", loaded.Fingerprint())
	}
	for i := 0; i < m.Size(); i++ {
		for j := 0; j < m.Size(); j++ {
			if loaded.Score(i, j) != m.Score(i, j) {
				t.Fatalf("score(%d,%d): got %f, want %f", i, j, loaded.Score(i, j), m.Score(i, j))
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error for missing matrix file")
	}
}
