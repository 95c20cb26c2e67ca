package models

import "time"

// Paper represents an uploaded question paper with its rating aggregates.
// AverageRating is kept equal to the arithmetic mean of the latest vote of
// every distinct rater; RatingsCount is the number of distinct raters.
type Paper struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Level         Level     `db:"level" json:"level"`
	Grade         *Grade    `db:"grade" json:"grade,omitempty"`
	Subject       string    `db:"subject" json:"subject"`
	Year          int       `db:"year" json:"year"`
	FileURL       string    `db:"file_url" json:"file_url"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
	RatingsCount  int       `db:"ratings_count" json:"ratings_count"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PaperFilter captures the explicit filter criteria supplied by the client.
// Nil/zero fields are unset.
type PaperFilter struct {
	Query   string
	Level   Level
	Grade   Grade
	Subject string
	Year    *int
}

// PaperScope is the viewer-role restriction applied before explicit filters.
// It also bounds the facet computation.
type PaperScope struct {
	Level Level
	Grade Grade
}

// PaperView decorates a paper with viewer-specific state.
type PaperView struct {
	Paper
	IsBookmarked bool `json:"is_bookmarked"`
}

// PaperFacets lists the filter options available within the viewer's scope.
type PaperFacets struct {
	Subjects []string `json:"subjects"`
	Years    []int    `json:"years"`
}

// PaperListing bundles the filtered papers with the scope facets.
type PaperListing struct {
	Papers []PaperView `json:"papers"`
	Facets PaperFacets `json:"facets"`
}
