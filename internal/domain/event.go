package domain

import "time"

// EventType names a post lifecycle transition.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// PostEvent is emitted after a post is created, updated or deleted.
type PostEvent struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`

	// Post is the post state after the write. It is nil for deletes.
	Post *Post `json:"post,omitempty"`

	At time.Time `json:"at"`
}
