// Package models defines core data structures for movies, recommendations, and errors.
package models

// Movie is one catalog entry. Its position in the catalog is the row/column
// index into the similarity matrix built from the same dataset snapshot.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Runtime     float64 `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Recommendation is one ranked result: a movie, its similarity score against
// the selected title, and a poster URL (empty when the poster lookup failed).
type Recommendation struct {
	Movie     Movie   `json:"movie"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url,omitempty"`
}

// RecommendRequest is the input for the recommendations endpoint.
type RecommendRequest struct {
	Title string `json:"title"`
}

// RecommendResponse holds the ranked recommendations for a selected title.
type RecommendResponse struct {
	Title   string           `json:"title"`
	Results []Recommendation `json:"results"`
	TookMs  int64            `json:"took_ms"`
}

// TitleMatch is one hit from the title search box.
type TitleMatch struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}
