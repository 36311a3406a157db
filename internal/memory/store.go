// Package memory provides an in-process PostStore. It backs the "memory"
// store driver and the HTTP and client tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/blackmichael/blog-admin/internal/domain"
)

type record struct {
	post domain.Post
	seq  int64
}

// Store keeps posts in a map guarded by a mutex. Copies are returned so
// callers never share state with the store.
type Store struct {
	mu    sync.RWMutex
	posts map[string]record
	seq   int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{posts: make(map[string]record)}
}

// ListPosts returns all posts, newest first. Posts created in the same
// millisecond keep reverse insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := make([]record, 0, len(s.posts))
	for _, r := range s.posts {
		records = append(records, r)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})

	posts := make([]domain.Post, len(records))
	for i, r := range records {
		posts[i] = r.post
	}
	return posts, nil
}

// GetPost returns a copy of the post with the given id.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	post := r.post
	return &post, nil
}

// InsertPost stores a copy of post under a fresh UUID.
func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stored := *post
	stored.ID = id
	s.posts[id] = record{post: stored, seq: s.seq}
	return id, nil
}

// UpdatePost overwrites the editable fields of an existing post.
func (s *Store) UpdatePost(ctx context.Context, id string, post *domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.post.Title = post.Title
	r.post.Slug = post.Slug
	r.post.Excerpt = post.Excerpt
	r.post.Content = post.Content
	r.post.Published = post.Published
	r.post.UpdatedAt = post.UpdatedAt
	s.posts[id] = r
	return nil
}

// DeletePost removes the post with the given id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}
