package domain

import "context"

// PostStore defines persistence operations for blog posts. Implementations
// return ErrNotFound when an id matches no record; any other error is treated
// as a store failure.
type PostStore interface {
	// ListPosts returns every post ordered by CreatedAt descending.
	ListPosts(ctx context.Context) ([]Post, error)

	// GetPost returns the post with the given id.
	GetPost(ctx context.Context, id string) (*Post, error)

	// InsertPost persists a new post and returns the identifier the store
	// assigned to it. The ID field of post is ignored.
	InsertPost(ctx context.Context, post *Post) (string, error)

	// UpdatePost overwrites title, slug, excerpt, content, published and
	// updatedAt of the post with the given id. ID and CreatedAt are left alone.
	UpdatePost(ctx context.Context, id string, post *Post) error

	// DeletePost removes the post with the given id.
	DeletePost(ctx context.Context, id string) error
}

// EventPublisher receives post lifecycle events after a write succeeds.
type EventPublisher interface {
	Publish(event PostEvent)
}

// Verifier checks a caller-supplied credential. Callers depend on this
// rather than on a concrete scheme so the shared-secret gate can be swapped.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Principal, error)
}
