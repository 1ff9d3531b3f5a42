// Package e2e exercises the full HTTP stack over a real listener: signup,
// login, browse, recommend, refresh, logout.
package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/auth"
	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/freshness"
	"github.com/hyperjump/susume/internal/library"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/server"
	"github.com/hyperjump/susume/internal/titles"
)

func writeDataset(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	records := [][]string{
		{"title", "id", "release_date", "runtime", "vote_average", "vote_count", "cast", "crew", "keywords", "genres"},
		{"Alpha", "1", "2001-01-01", "100", "7.0", "500",
			`[{"name": "Actor One"}]`, `[{"name": "Dir One", "job": "Director"}]`,
			`[{"name": "space"}]`, `[{"name": "Action"}]`},
		{"Beta", "2", "2002-01-01", "110", "6.5", "300",
			`[{"name": "Actor One"}]`, `[{"name": "Dir One", "job": "Director"}]`,
			`[{"name": "space"}]`, `[{"name": "Action"}]`},
		{"Gamma", "3", "2003-01-01", "90", "8.0", "900",
			`[{"name": "Actor Two"}]`, `[{"name": "Dir Two", "job": "Director"}]`,
			`[{"name": "romance"}]`, `[{"name": "Drama"}]`},
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatal(err)
	}
}

func TestE2E_FullFlow(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "movies.csv")
	writeDataset(t, datasetPath)

	titleIndex, err := titles.Open(filepath.Join(dir, "titles"))
	if err != nil {
		t.Fatal(err)
	}
	defer titleIndex.Close()

	rebuilder, err := library.NewRebuilder(
		datasetPath,
		filepath.Join(dir, "catalog.bin"),
		filepath.Join(dir, "matrix.bin"),
		library.WithTitleIndex(titleIndex),
	)
	if err != nil {
		t.Fatal(err)
	}
	monitor := freshness.NewMonitor(datasetPath, filepath.Join(dir, "last_modified.txt"))
	snap, err := rebuilder.Rebuild(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	current, err := monitor.CurrentModified()
	if err != nil {
		t.Fatal(err)
	}
	if err := monitor.MarkRebuilt(current); err != nil {
		t.Fatal(err)
	}
	lib := library.New(snap)

	users, err := auth.NewStore(filepath.Join(dir, "users.db"), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer users.Close()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			MinUsernameLen:    3,
			MinPasswordLen:    6,
			BcryptCost:        4,
			SessionTTLMinutes: 60,
		},
		Recommend: config.RecommendConfig{TopN: 10},
	}
	engine := recommend.NewEngine(lib, cfg.Recommend.TopN)
	sessions := auth.NewSessions(time.Hour)
	srv := server.NewServer(lib, engine, rebuilder, monitor, users, sessions, titleIndex, cfg, zap.NewNop())

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}

	post := func(path string, body interface{}) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatal(err)
			}
		}
		resp, err := client.Post(ts.URL+path, "application/json", &buf)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Anonymous recommendation attempt is rejected.
	resp := post("/api/v1/recommendations", models.RecommendRequest{Title: "Alpha"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous recommend: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	creds := map[string]string{"username": "alice", "password": "secret123"}
	resp = post("/api/v1/auth/signup", creds)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = post("/api/v1/auth/login", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Browse the catalog.
	resp, err = client.Get(ts.URL + "/api/v1/movies")
	if err != nil {
		t.Fatal(err)
	}
	var movies struct {
		Titles []string `json:"titles"`
		Count  int      `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&movies); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if movies.Count != 3 {
		t.Fatalf("movies: got %d, want 3", movies.Count)
	}

	// Find a title through the search box, then recommend from it.
	resp, err = client.Get(ts.URL + "/api/v1/movies/search?q=" + "alpha")
	if err != nil {
		t.Fatal(err)
	}
	var search struct {
		Matches []models.TitleMatch `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(search.Matches) != 1 {
		t.Fatalf("search matches: %v", search.Matches)
	}

	resp = post("/api/v1/recommendations", models.RecommendRequest{Title: search.Matches[0].Title})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recommend: got %d", resp.StatusCode)
	}
	var recs models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(recs.Results) != 2 || recs.Results[0].Movie.Title != "Beta" {
		t.Fatalf("recommendations: %+v", recs.Results)
	}

	// An unchanged dataset refresh reports unchanged.
	resp = post("/api/v1/dataset/refresh", nil)
	var refresh struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&refresh); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if refresh.Status != "unchanged" {
		t.Errorf("refresh: got %q, want unchanged", refresh.Status)
	}

	// Logout ends the session.
	resp = post("/api/v1/auth/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: got %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = post("/api/v1/recommendations", models.RecommendRequest{Title: "Alpha"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("recommend after logout: got %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
