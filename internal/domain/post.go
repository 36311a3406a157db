package domain

import "time"

// Post is a blog article as stored in the document store.
type Post struct {
	// ID is assigned by the store on creation and never changes.
	ID string `json:"id"`

	Title string `json:"title"`

	// Slug is derived from Title on every create and update.
	Slug string `json:"slug"`

	Excerpt string `json:"excerpt"`

	Content string `json:"content"`

	Published bool `json:"published"`

	// CreatedAt is set once, when the post is created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set at creation and refreshed on every update.
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostInput carries the caller-supplied fields of a create or update. Updates
// are full overwrites, so every field is applied as given.
type PostInput struct {
	Title     string
	Excerpt   string
	Content   string
	Published bool
}
