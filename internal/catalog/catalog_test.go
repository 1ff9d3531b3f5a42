package catalog

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/susume/internal/models"
)

func sampleMovies() []models.Movie {
	return []models.Movie{
		{ID: 1, Title: "Alpha", ReleaseDate: "2001-05-04", Runtime: 120, VoteAverage: 7.5, VoteCount: 1500},
		{ID: 2, Title: "Beta", ReleaseDate: "1999-01-01", Runtime: 95, VoteAverage: 6.1, VoteCount: 300},
		{ID: 3, Title: "Gamma"},
	}
}

func TestBuildAndLookup(t *testing.T) {
	c, err := Build(sampleMovies())
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Fatalf("len: got %d, want 3", c.Len())
	}
	pos, ok := c.Position("Beta")
	if !ok || pos != 1 {
		t.Errorf("Position(Beta): got %d, %v", pos, ok)
	}
	if _, ok := c.Position("Delta"); ok {
		t.Error("Position(Delta): expected miss")
	}
	if c.At(0).ID != 1 {
		t.Errorf("At(0): got %+v", c.At(0))
	}
}

func TestBuildRejectsDuplicateTitles(t *testing.T) {
	movies := []models.Movie{{ID: 1, Title: "Alpha"}, {ID: 2, Title: "Alpha"}}
	if _, err := Build(movies); err == nil {
		t.Error("expected error for duplicate title")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a, _ := Build(sampleMovies())
	b, _ := Build(sampleMovies()[:2])
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different catalogs share a fingerprint")
	}
	c, _ := Build(sampleMovies())
	if a.Fingerprint() != c.Fingerprint() {
		t.Error("same content yields different fingerprints")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.gob")
	c, _ := Build(sampleMovies())
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != c.Len() || loaded.Fingerprint() != c.Fingerprint() {
		t.Errorf("loaded: len %d fp %q", loaded.Len(), loaded.Fingerprint())
	}
	pos, ok := loaded.Position("Gamma")
	if !ok || pos != 2 {
		t.Errorf("Position(Gamma): got %d, %v", pos, ok)
	}
	if loaded.At(1).VoteCount != 300 {
		t.Errorf("At(1): got %+v", loaded.At(1))
	}
}

func TestTitles(t *testing.T) {
	c, _ := Build(sampleMovies())
	titles := c.Titles()
	if len(titles) != 3 || titles[0] != "Alpha" || titles[2] != "Gamma" {
		t.Errorf("titles: got %v", titles)
	}
}
