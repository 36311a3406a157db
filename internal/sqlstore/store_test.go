package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/blog-admin/internal/domain"
)

var _ domain.PostStore = (*Store)(nil)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "blog.db"), "posts")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(title string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		Title:     title,
		Slug:      domain.Slugify(title),
		Excerpt:   "excerpt of " + title,
		Content:   "content of " + title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestStore_InsertGetList(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	oldID, err := s.InsertPost(ctx, testPost("Old", base))
	require.NoError(t, err)
	newID, err := s.InsertPost(ctx, testPost("New", base.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)

	got, err := s.GetPost(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, oldID, got.ID)
	assert.Equal(t, "Old", got.Title)
	assert.Equal(t, "old", got.Slug)
	assert.Equal(t, "excerpt of Old", got.Excerpt)
	assert.False(t, got.Published)
	assert.True(t, base.Equal(got.CreatedAt))
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newID, posts[0].ID)
	assert.Equal(t, oldID, posts[1].ID)
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	created := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	id, err := s.InsertPost(ctx, testPost("Draft", created))
	require.NoError(t, err)

	updated := created.Add(90 * time.Second)
	err = s.UpdatePost(ctx, id, &domain.Post{
		Title:     "Final",
		Slug:      "final",
		Excerpt:   "x",
		Content:   "y",
		Published: true,
		CreatedAt: updated, // ignored by the store
		UpdatedAt: updated,
	})
	require.NoError(t, err)

	got, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "final", got.Slug)
	assert.True(t, got.Published)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))

	err = s.UpdatePost(ctx, "missing", &domain.Post{Title: "t"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	id, err := s.InsertPost(ctx, testPost("Gone", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, id))
	assert.ErrorIs(t, s.DeletePost(ctx, id), domain.ErrNotFound)

	_, err = s.GetPost(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blog.db")

	s, err := Open(ctx, SQLite, path, "posts")
	require.NoError(t, err)
	id, err := s.InsertPost(ctx, testPost("Persisted", time.Now().UTC()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, SQLite, path, "posts")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}

func TestOpen_RejectsBadTableName(t *testing.T) {
	_, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "x.db"), "posts; DROP TABLE x")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `UPDATE posts SET a = ?, b = ? WHERE id = ?`

	assert.Equal(t, q, rebind(SQLite, q))
	assert.Equal(t, `UPDATE posts SET a = $1, b = $2 WHERE id = $3`, rebind(Postgres, q))
}
