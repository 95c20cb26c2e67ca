package models

import "time"

// Suggestion is a free-standing feedback message addressed to administrators.
type Suggestion struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
