package titles

import (
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T, titles []string) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "titles"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ix.Close() })
	if err := ix.Rebuild(titles); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestSearchExact(t *testing.T) {
	ix := newTestIndex(t, []string{"The Dark Knight", "Dark City", "Inception"})
	matches, err := ix.Search("dark", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: got %d, want 2 (%v)", len(matches), matches)
	}
	for _, m := range matches {
		if m.Title != "The Dark Knight" && m.Title != "Dark City" {
			t.Errorf("unexpected match %q", m.Title)
		}
	}
}

func TestSearchFuzzyFallback(t *testing.T) {
	ix := newTestIndex(t, []string{"Inception"})
	matches, err := ix.Search("inceptoin", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Title != "Inception" {
		t.Errorf("fuzzy: got %v", matches)
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	ix := newTestIndex(t, []string{"Old Movie"})
	if err := ix.Rebuild([]string{"New Movie"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := ix.Count(); n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
	matches, err := ix.Search("old", 10)
	if err != nil {
		t.Fatal(err)
	}
	// "old" fuzzy-matches nothing in the new index.
	for _, m := range matches {
		if m.Title == "Old Movie" {
			t.Error("rebuild left old title behind")
		}
	}
}
