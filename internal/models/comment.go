package models

import "time"

// Comment is an immutable remark on a paper. Author fields are snapshotted at
// creation time so later profile edits do not rewrite history.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	PaperID    string    `db:"paper_id" json:"paper_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	AuthorRole UserRole  `db:"author_role" json:"author_role"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
