// Package cli provides CLI output helpers for Susume.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/susume/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a -output flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteRecommendations writes a recommendation response to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	writeRecommendationsText(w, response)
	return nil
}

func writeRecommendationsText(w io.Writer, response *models.RecommendResponse) {
	fmt.Fprintf(w, "\nRecommendations for %q (%d results in %dms)\n\n",
		response.Title, len(response.Results), response.TookMs)
	for i, rec := range response.Results {
		fmt.Fprintf(w, "%2d. %s", i+1, rec.Movie.Title)
		if rec.Movie.ReleaseDate != "" {
			fmt.Fprintf(w, " (%s)", rec.Movie.ReleaseDate)
		}
		fmt.Fprintf(w, "\n    score %.4f", rec.Score)
		if rec.Movie.VoteCount > 0 {
			fmt.Fprintf(w, " | rating %.1f (%d votes)", rec.Movie.VoteAverage, rec.Movie.VoteCount)
		}
		fmt.Fprintln(w)
		if rec.PosterURL != "" {
			fmt.Fprintf(w, "    poster %s\n", rec.PosterURL)
		}
	}
	fmt.Fprintln(w)
}

// DatasetStatus is the shape of GET /api/v1/dataset/status.
type DatasetStatus struct {
	Movies         int     `json:"movies"`
	MatrixSize     int     `json:"matrix_size"`
	IndexedTitles  uint64  `json:"indexed_titles"`
	LastRebuilt    float64 `json:"last_rebuilt"`
	Stale          bool    `json:"stale"`
	DiskUsageBytes int64   `json:"disk_usage_bytes,omitempty"`
}

// WriteStatus writes dataset status to w in the given format.
func WriteStatus(w io.Writer, status *DatasetStatus, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintf(w, "Movies:         %d\n", status.Movies)
	fmt.Fprintf(w, "Matrix size:    %dx%d\n", status.MatrixSize, status.MatrixSize)
	fmt.Fprintf(w, "Indexed titles: %d\n", status.IndexedTitles)
	fmt.Fprintf(w, "Last rebuilt:   %v\n", status.LastRebuilt)
	fmt.Fprintf(w, "Stale:          %v\n", status.Stale)
	if status.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "Disk usage:     %d bytes\n", status.DiskUsageBytes)
	}
	return nil
}
