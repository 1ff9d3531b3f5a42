package library

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
)

func writeDataset(t *testing.T, dir string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, "movies.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	header := []string{"title", "id", "release_date", "runtime", "vote_average", "vote_count", "cast", "crew", "keywords", "genres"}
	if err := w.Write(header); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRows() [][]string {
	return [][]string{
		{"Alpha", "1", "2001-01-01", "100", "7.0", "500",
			`[{"name": "Actor One"}]`, `[{"name": "Dir One", "job": "Director"}]`,
			`[{"name": "space"}, {"name": "robot"}]`, `[{"name": "Action"}]`},
		{"Beta", "2", "2002-01-01", "110", "6.5", "300",
			`[{"name": "Actor One"}]`, `[{"name": "Dir One", "job": "Director"}]`,
			`[{"name": "space"}]`, `[{"name": "Action"}]`},
		{"Gamma", "3", "2003-01-01", "90", "8.0", "900",
			`[{"name": "Actor Two"}]`, `[{"name": "Dir Two", "job": "Director"}]`,
			`[{"name": "romance"}]`, `[{"name": "Drama"}]`},
	}
}

func TestRebuildAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataset := writeDataset(t, dir, testRows())
	catalogPath := filepath.Join(dir, "catalog.bin")
	matrixPath := filepath.Join(dir, "matrix.bin")

	r, err := NewRebuilder(dataset, catalogPath, matrixPath)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := r.Rebuild(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Catalog.Len() != 3 {
		t.Fatalf("catalog len: got %d, want 3", snap.Catalog.Len())
	}
	if snap.Matrix.Size() != 3 {
		t.Fatalf("matrix size: got %d, want 3", snap.Matrix.Size())
	}
	if snap.Matrix.Fingerprint() != snap.Catalog.Fingerprint() {
		t.Error("pair fingerprints differ after rebuild")
	}

	loaded, err := LoadSnapshot(catalogPath, matrixPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Catalog.Len() != 3 || loaded.Matrix.Size() != 3 {
		t.Errorf("loaded pair: catalog %d, matrix %d", loaded.Catalog.Len(), loaded.Matrix.Size())
	}

	// Alpha and Beta share cast, director, a keyword and genre; Gamma shares
	// nothing. Beta must rank above Gamma for Alpha.
	i, _ := loaded.Catalog.Position("Alpha")
	j, _ := loaded.Catalog.Position("Beta")
	k, _ := loaded.Catalog.Position("Gamma")
	if loaded.Matrix.Score(i, j) <= loaded.Matrix.Score(i, k) {
		t.Errorf("Beta should outrank Gamma for Alpha: %v vs %v",
			loaded.Matrix.Score(i, j), loaded.Matrix.Score(i, k))
	}
}

func TestLoadSnapshotMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSnapshot(filepath.Join(dir, "catalog.bin"), filepath.Join(dir, "matrix.bin"))
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Errorf("missing pair: got %v, want ErrDataUnavailable", err)
	}
}

func TestLoadSnapshotFingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	cat, err := catalog.Build([]models.Movie{{ID: 1, Title: "Alpha"}})
	if err != nil {
		t.Fatal(err)
	}
	catalogPath := filepath.Join(dir, "catalog.bin")
	matrixPath := filepath.Join(dir, "matrix.bin")
	if err := cat.Save(catalogPath); err != nil {
		t.Fatal(err)
	}
	mat := similarity.FromVectors([][]float32{{1}}, "deadbeef")
	if err := mat.Save(matrixPath); err != nil {
		t.Fatal(err)
	}
	_, err = LoadSnapshot(catalogPath, matrixPath)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Errorf("mismatched pair: got %v, want ErrDataUnavailable", err)
	}
}

func TestRebuildDuplicateTitleFails(t *testing.T) {
	dir := t.TempDir()
	rows := testRows()
	rows[2][0] = "Alpha"
	dataset := writeDataset(t, dir, rows)
	r, err := NewRebuilder(dataset, filepath.Join(dir, "c.bin"), filepath.Join(dir, "m.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Rebuild(context.Background()); err == nil {
		t.Error("duplicate title: expected rebuild to fail")
	}
}

func TestLibrarySwap(t *testing.T) {
	first := &Snapshot{}
	second := &Snapshot{}
	l := New(first)
	if l.Snapshot() != first {
		t.Error("initial snapshot not returned")
	}
	l.Swap(second)
	if l.Snapshot() != second {
		t.Error("swap did not take effect")
	}
}
