// Package natskv implements domain.PostStore on a NATS JetStream key-value
// bucket. Each post is stored as a JSON document keyed by its id.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/blackmichael/blog-admin/internal/domain"
)

// BucketName returns the KV bucket used for a database and collection pair,
// e.g. BLOG_POSTS.
func BucketName(database, collection string) string {
	return strings.ToUpper(database + "_" + collection)
}

// Store implements domain.PostStore backed by NATS KV.
type Store struct {
	nc    *nats.Conn
	posts jetstream.KeyValue
}

// Open connects to NATS at url and opens, or creates, the bucket for the
// given database and collection.
func Open(ctx context.Context, url, database, collection string) (*Store, error) {
	nc, err := nats.Connect(url, nats.Name("blog-admin"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	kv, err := getOrCreateBucket(ctx, js, BucketName(database, collection))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open posts bucket: %w", err)
	}

	return &Store{nc: nc, posts: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Blog posts",
		History:     1,
	})
}

// Close drains and closes the NATS connection.
func (s *Store) Close() error {
	return s.nc.Drain()
}

// ListPosts reads every key in the bucket and sorts the posts by CreatedAt
// descending. KV has no server-side ordering.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	lister, err := s.posts.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return []domain.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer lister.Stop()

	var posts []domain.Post
	for key := range lister.Keys() {
		p, err := s.get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			// deleted between listing and reading
			continue
		}
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	sortNewestFirst(posts)
	return posts, nil
}

// GetPost retrieves a post by id.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.get(ctx, id)
}

// InsertPost stores a new post under a fresh UUID.
func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (string, error) {
	id := uuid.NewString()

	stored := *post
	stored.ID = id
	data, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	if _, err := s.posts.Create(ctx, id, data); err != nil {
		return "", fmt.Errorf("store post: %w", err)
	}
	return id, nil
}

// UpdatePost overwrites the editable fields of an existing post. Concurrent
// writers race; the last Put wins.
func (s *Store) UpdatePost(ctx context.Context, id string, post *domain.Post) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	existing.Title = post.Title
	existing.Slug = post.Slug
	existing.Excerpt = post.Excerpt
	existing.Content = post.Content
	existing.Published = post.Published
	existing.UpdatedAt = post.UpdatedAt

	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}
	if _, err := s.posts.Put(ctx, id, data); err != nil {
		return fmt.Errorf("put post %s: %w", id, err)
	}
	return nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (*domain.Post, error) {
	if !validKey(id) {
		return nil, fmt.Errorf("invalid post id %q", id)
	}

	entry, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}

	var p domain.Post
	if err := json.Unmarshal(entry.Value(), &p); err != nil {
		return nil, fmt.Errorf("unmarshal post %s: %w", id, err)
	}
	return &p, nil
}

// validKey reports whether id can be used as a KV key. UUIDs always can.
func validKey(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") || strings.HasSuffix(id, ".") {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '=', r == '.':
		default:
			return false
		}
	}
	return true
}

func sortNewestFirst(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
