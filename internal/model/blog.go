package model

import "time"

// Blog represents a post.
//
// UserID is the author. The foreign key cascades: deleting a user deletes
// their posts.
type Blog struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	UserID    int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	// Author is joined in by the repository on reads.
	Author *Author `json:"author,omitempty"`
}
