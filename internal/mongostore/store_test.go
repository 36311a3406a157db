package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/blackmichael/blog-admin/internal/domain"
)

var _ domain.PostStore = (*Store)(nil)

func TestParseID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := parseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	for _, bad := range []string{"", "not-an-id", "123", oid.Hex() + "0"} {
		_, err := parseID(bad)
		assert.Error(t, err, "id %q", bad)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 6000000, time.UTC)
	post := &domain.Post{
		Title:     "Hello, World!",
		Slug:      "hello-world",
		Excerpt:   "e",
		Content:   "c",
		Published: true,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}

	doc := fromPost(post)
	assert.True(t, doc.ID.IsZero(), "new documents leave _id to the server")

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "_id")
	for _, key := range []string{"title", "slug", "excerpt", "content", "published", "createdAt", "updatedAt"} {
		assert.Contains(t, fields, key)
	}

	var decoded postDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	decoded.ID = primitive.NewObjectID()

	got := decoded.toPost()
	assert.Equal(t, decoded.ID.Hex(), got.ID)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Slug, got.Slug)
	assert.True(t, got.Published)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, post.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpdateDocumentLeavesIdentityAlone(t *testing.T) {
	update := updateDocument(&domain.Post{Title: "t", Slug: "t", UpdatedAt: time.Now()})

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, set, "_id")
	assert.NotContains(t, set, "createdAt")
	assert.Contains(t, set, "updatedAt")
	assert.Contains(t, set, "slug")
}
