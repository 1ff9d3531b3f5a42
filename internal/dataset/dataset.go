// Package dataset parses the source CSV file into typed movie rows.
package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hyperjump/susume/internal/models"
)

// maxListNames caps how many cast/keyword/genre names feed the soup,
// matching the offline feature-engineering recipe (top 3 per field).
const maxListNames = 3

// Row is one parsed dataset row: the display metadata plus the textual
// features the similarity build consumes.
type Row struct {
	Movie    models.Movie
	Cast     []string
	Director string
	Keywords []string
	Genres   []string
}

// namedRecord is one entry of a JSON list column ([{"name": ...}, ...]).
// Crew records additionally carry the job used to pick the director.
type namedRecord struct {
	Name string `json:"name"`
	Job  string `json:"job,omitempty"`
}

var requiredColumns = []string{
	"title", "id", "release_date", "runtime", "vote_average", "vote_count",
	"cast", "crew", "keywords", "genres",
}

// ParseFile reads the CSV at path and returns its rows in file order.
func ParseFile(ctx context.Context, path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse reads CSV from r. The first record must be a header containing all
// required columns; extra columns are ignored.
func Parse(ctx context.Context, r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset missing column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record at line %d: %w", line, err)
		}
		row, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}
	return rows, nil
}

func parseRecord(record []string, cols map[string]int) (Row, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	id, err := strconv.Atoi(field("id"))
	if err != nil {
		return Row{}, fmt.Errorf("parse id %q: %w", field("id"), err)
	}
	cast, err := parseNames(field("cast"), maxListNames)
	if err != nil {
		return Row{}, fmt.Errorf("parse cast: %w", err)
	}
	keywords, err := parseNames(field("keywords"), maxListNames)
	if err != nil {
		return Row{}, fmt.Errorf("parse keywords: %w", err)
	}
	genres, err := parseNames(field("genres"), maxListNames)
	if err != nil {
		return Row{}, fmt.Errorf("parse genres: %w", err)
	}
	director, err := parseDirector(field("crew"))
	if err != nil {
		return Row{}, fmt.Errorf("parse crew: %w", err)
	}

	return Row{
		Movie: models.Movie{
			ID:          id,
			Title:       field("title"),
			ReleaseDate: field("release_date"),
			Runtime:     parseFloat(field("runtime")),
			VoteAverage: parseFloat(field("vote_average")),
			VoteCount:   int(parseFloat(field("vote_count"))),
		},
		Cast:     cast,
		Director: director,
		Keywords: keywords,
		Genres:   genres,
	}, nil
}

// parseNames decodes a JSON list column and returns up to limit names.
// An empty column is an empty list, not an error.
func parseNames(raw string, limit int) ([]string, error) {
	records, err := parseRecords(raw)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		names = append(names, rec.Name)
		if limit > 0 && len(names) == limit {
			break
		}
	}
	return names, nil
}

// parseDirector returns the name of the first crew record whose job is
// "Director", or "" when the column has none.
func parseDirector(raw string) (string, error) {
	records, err := parseRecords(raw)
	if err != nil {
		return "", err
	}
	for _, rec := range records {
		if rec.Job == "Director" {
			return rec.Name, nil
		}
	}
	return "", nil
}

func parseRecords(raw string) ([]namedRecord, error) {
	if raw == "" {
		return nil, nil
	}
	var records []namedRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
