package models

import "time"

// RatingLogEntry records a user's most recent vote on a paper. At most one
// entry exists per (paper, user) pair; re-voting overwrites the value.
type RatingLogEntry struct {
	PaperID   string    `db:"paper_id" json:"paper_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Value     int       `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary is the paper aggregate returned after a vote.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	RatingsCount  int     `json:"ratings_count"`
}
