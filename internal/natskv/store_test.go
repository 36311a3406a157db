package natskv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blackmichael/blog-admin/internal/domain"
)

var _ domain.PostStore = (*Store)(nil)

func TestBucketName(t *testing.T) {
	assert.Equal(t, "BLOG_POSTS", BucketName("blog", "posts"))
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"0b9c3f4e-8a4f-4b8e-9a57-2f7a3b1c9d10", true},
		{"abc_DEF=1", true},
		{"", false},
		{".leading", false},
		{"trailing.", false},
		{"has space", false},
		{"wild*card", false},
		{"sub>all", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, validKey(tt.key))
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	posts := []domain.Post{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "d", CreatedAt: base},
	}

	sortNewestFirst(posts)

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids)
}
