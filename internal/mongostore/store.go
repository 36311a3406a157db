// Package mongostore implements domain.PostStore on MongoDB. Each post is one
// document in the configured collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blackmichael/blog-admin/internal/domain"
)

// postDocument is the persisted layout of a post.
type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Slug      string             `bson:"slug"`
	Excerpt   string             `bson:"excerpt"`
	Content   string             `bson:"content"`
	Published bool               `bson:"published"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// Store implements domain.PostStore using a MongoDB collection.
type Store struct {
	client *mongo.Client
	posts  *mongo.Collection
}

// Open connects to MongoDB at uri, verifies the connection and ensures the
// createdAt index exists. The caller should call Close when done.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		posts:  client.Database(database).Collection(collection),
	}

	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create createdAt index: %w", err)
	}

	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ListPosts returns every post sorted by createdAt descending.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]domain.Post, len(docs))
	for i := range docs {
		posts[i] = docs[i].toPost()
	}
	return posts, nil
}

// GetPost looks up a single post by its hex ObjectID.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc postDocument
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", id, err)
	}

	post := doc.toPost()
	return &post, nil
}

// InsertPost inserts a new document and returns the generated ObjectID.
func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (string, error) {
	res, err := s.posts.InsertOne(ctx, fromPost(post))
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// UpdatePost sets the editable fields of a post.
func (s *Store) UpdatePost(ctx context.Context, id string, post *domain.Post) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, updateDocument(post))
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// parseID converts a hex id into an ObjectID. A malformed id is a store
// error, not a missing post.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid post id %q: %w", id, err)
	}
	return oid, nil
}

func fromPost(p *domain.Post) postDocument {
	return postDocument{
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func updateDocument(p *domain.Post) bson.M {
	return bson.M{
		"$set": bson.M{
			"title":     p.Title,
			"slug":      p.Slug,
			"excerpt":   p.Excerpt,
			"content":   p.Content,
			"published": p.Published,
			"updatedAt": p.UpdatedAt,
		},
	}
}

func (d postDocument) toPost() domain.Post {
	return domain.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Slug:      d.Slug,
		Excerpt:   d.Excerpt,
		Content:   d.Content,
		Published: d.Published,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}
