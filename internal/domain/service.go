package domain

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// PostService is the core domain service. It owns slug derivation, timestamp
// stamping and input validation, and maps store failures onto the domain
// error taxonomy. It keeps no post state between calls.
type PostService struct {
	store   PostStore
	events  EventPublisher
	observe func(op string, err error)
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures optional collaborators of a PostService.
type Option func(*PostService)

// WithEvents publishes a PostEvent after every successful write.
func WithEvents(p EventPublisher) Option {
	return func(s *PostService) { s.events = p }
}

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) { s.now = now }
}

// WithObserver registers a callback invoked with the outcome of every
// operation. It is used to feed metrics.
func WithObserver(fn func(op string, err error)) Option {
	return func(s *PostService) { s.observe = fn }
}

// NewPostService creates a PostService backed by the given store.
func NewPostService(store PostStore, logger *slog.Logger, opts ...Option) *PostService {
	s := &PostService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) (posts []Post, err error) {
	defer func() { s.record("list", err) }()

	posts, err = s.store.ListPosts(ctx)
	if err != nil {
		return nil, s.storeFailure("list posts", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// Get returns a single post by id.
func (s *PostService) Get(ctx context.Context, id string) (post *Post, err error) {
	defer func() { s.record("get", err) }()

	post, err = s.store.GetPost(ctx, id)
	if err != nil {
		return nil, s.storeFailure("get post", err)
	}
	return post, nil
}

// Create validates the input, derives the slug, stamps both timestamps and
// inserts the post. It returns the identifier assigned by the store.
func (s *PostService) Create(ctx context.Context, in PostInput) (id string, err error) {
	defer func() { s.record("create", err) }()

	slug, err := validateInput(in)
	if err != nil {
		return "", err
	}

	now := s.clock()
	post := &Post{
		Title:     in.Title,
		Slug:      slug,
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err = s.store.InsertPost(ctx, post)
	if err != nil {
		return "", s.storeFailure("insert post", err)
	}
	post.ID = id

	s.logger.Debug("post created", "id", id, "slug", slug)
	s.publish(EventCreated, id, post)
	return id, nil
}

// Update overwrites every editable field of an existing post. The slug is
// re-derived from the new title and UpdatedAt is moved strictly forward;
// ID and CreatedAt are preserved.
func (s *PostService) Update(ctx context.Context, id string, in PostInput) (err error) {
	defer func() { s.record("update", err) }()

	slug, err := validateInput(in)
	if err != nil {
		return err
	}

	existing, err := s.store.GetPost(ctx, id)
	if err != nil {
		return s.storeFailure("get post", err)
	}

	now := s.clock()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Millisecond)
	}

	post := &Post{
		ID:        id,
		Title:     in.Title,
		Slug:      slug,
		Excerpt:   in.Excerpt,
		Content:   in.Content,
		Published: in.Published,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: now,
	}
	if err := s.store.UpdatePost(ctx, id, post); err != nil {
		return s.storeFailure("update post", err)
	}

	s.logger.Debug("post updated", "id", id, "slug", slug)
	s.publish(EventUpdated, id, post)
	return nil
}

// Delete removes a post. Deleting an id that matches nothing is ErrNotFound.
func (s *PostService) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.record("delete", err) }()

	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.storeFailure("delete post", err)
	}

	s.logger.Debug("post deleted", "id", id)
	s.publish(EventDeleted, id, nil)
	return nil
}

// ListPublished returns the published posts, newest first.
func (s *PostService) ListPublished(ctx context.Context) ([]Post, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		}
	}
	return published, nil
}

// GetPublishedBySlug returns the newest published post carrying slug. Slugs
// are not unique, so older posts with the same slug are shadowed.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	posts, err := s.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], nil
		}
	}
	return nil, ErrNotFound
}

func validateInput(in PostInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", &ValidationError{Field: "title", Message: "is required"}
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return "", &ValidationError{Field: "title", Message: "must contain at least one letter or digit"}
	}
	return slug, nil
}

// clock returns the current time at the precision the document store keeps.
func (s *PostService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *PostService) storeFailure(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		storeErr = &StoreError{Op: op, Err: err}
	}
	s.logger.Error("store operation failed", "op", op, "error", err)
	return storeErr
}

func (s *PostService) publish(t EventType, id string, post *Post) {
	if s.events == nil {
		return
	}
	s.events.Publish(PostEvent{Type: t, ID: id, Post: post, At: s.clock()})
}

func (s *PostService) record(op string, err error) {
	if s.observe != nil {
		s.observe(op, err)
	}
}
