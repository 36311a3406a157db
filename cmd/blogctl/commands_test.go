package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-extras/go-kit/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/blog-admin/internal/config"
	"github.com/blackmichael/blog-admin/internal/domain"
	"github.com/blackmichael/blog-admin/internal/httpserver"
	"github.com/blackmichael/blog-admin/internal/memory"
)

const password = "ctl-pass"

func startServer(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	posts := domain.NewPostService(memory.NewStore(), logger)
	gate := must.Must(domain.NewSessionGate(password, ""))

	server := httpserver.NewServer(&config.Config{}, httpserver.Deps{Posts: posts, Gate: gate}, logger)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCtl(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--server", url, "--password", password))
	err := cmd.Execute()
	return out.String(), err
}

func TestBlogctl_CreateListUpdateDelete(t *testing.T) {
	url := startServer(t)

	bodyFile := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(bodyFile, []byte("# Body\n"), 0o600))

	out, err := runCtl(t, url, "create", "--title", "CLI Post", "--excerpt", "short", "--content-file", bodyFile)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = runCtl(t, url, "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, "cli-post")

	out, err = runCtl(t, url, "update", id, "--title", "Renamed", "--published")
	require.NoError(t, err)
	assert.Equal(t, "updated "+id+"\n", out)

	out, err = runCtl(t, url, "get", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"slug": "renamed"`)
	assert.Contains(t, out, `"published": true`)
	assert.Contains(t, out, `"excerpt": "short"`)
	assert.Contains(t, out, `"content": "# Body\n"`)

	out, err = runCtl(t, url, "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+id+"\n", out)

	_, err = runCtl(t, url, "get", id)
	assert.ErrorContains(t, err, "Post not found")
}

func TestBlogctl_RequiresPassword(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list", "--server", "http://127.0.0.1:1", "--password", ""})

	assert.ErrorContains(t, cmd.Execute(), "--password is required")
}

func TestFormatEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got := formatEvent(domain.PostEvent{Type: domain.EventCreated, ID: "abc", Post: &domain.Post{Title: "Hi"}, At: at})
	assert.Equal(t, `2026-01-02T03:04:05Z created abc "Hi"`, got)

	got = formatEvent(domain.PostEvent{Type: domain.EventDeleted, ID: "abc", At: at})
	assert.Equal(t, `2026-01-02T03:04:05Z deleted abc`, got)
}
