// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Password holds the bcrypt digest, never the plaintext. The `json:"-"` tag
// keeps it out of every response, whatever the handler serializes.
//
// WHY UpdatedAt *time.Time?
// A user that has never been edited has no update time. A nil pointer
// serializes as JSON null, which is what clients expect for "never".
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	// Blogs is filled in by the list and get endpoints only.
	Blogs []Blog `json:"blogs"`
}

// Author is the public view of a user embedded in blog responses.
type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
