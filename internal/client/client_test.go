package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-extras/go-kit/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/blog-admin/internal/client"
	"github.com/blackmichael/blog-admin/internal/config"
	"github.com/blackmichael/blog-admin/internal/domain"
	"github.com/blackmichael/blog-admin/internal/events"
	"github.com/blackmichael/blog-admin/internal/httpserver"
	"github.com/blackmichael/blog-admin/internal/memory"
)

const password = "s3cret"

func startServer(t *testing.T) (*httptest.Server, *events.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := events.NewHub(logger)
	posts := domain.NewPostService(memory.NewStore(), logger, domain.WithEvents(hub))
	gate := must.Must(domain.NewSessionGate(password, ""))

	server := httpserver.NewServer(&config.Config{}, httpserver.Deps{
		Posts:  posts,
		Gate:   gate,
		Events: hub,
	}, logger)

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv, hub
}

func loggedIn(t *testing.T, srv *httptest.Server, opts ...client.Option) *client.Client {
	t.Helper()
	c := client.NewClient(srv.URL+"/", opts...)
	require.NoError(t, c.Login(context.Background(), password))
	require.NotEmpty(t, c.Token())
	return c
}

func TestClient_Login(t *testing.T) {
	srv, _ := startServer(t)
	c := client.NewClient(srv.URL)

	err := c.Login(context.Background(), "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid password", apiErr.Message)
	assert.Empty(t, c.Token())

	_, err = c.ListPosts(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestClient_PostLifecycle(t *testing.T) {
	ctx := context.Background()
	srv, _ := startServer(t)
	c := loggedIn(t, srv)

	posts, err := c.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	id, err := c.CreatePost(ctx, domain.PostInput{Title: "From the CLI", Excerpt: "e", Content: "c"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	post, err := c.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "from-the-cli", post.Slug)
	assert.False(t, post.Published)

	require.NoError(t, c.UpdatePost(ctx, id, domain.PostInput{Title: "Renamed", Excerpt: "e", Content: "c", Published: true}))

	posts, err = c.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "renamed", posts[0].Slug)
	assert.True(t, posts[0].Published)

	require.NoError(t, c.DeletePost(ctx, id))

	_, err = c.GetPost(ctx, id)
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.ErrorIs(t, c.DeletePost(ctx, id), client.ErrNotFound)
}

func TestClient_ValidationError(t *testing.T) {
	srv, _ := startServer(t)
	c := loggedIn(t, srv)

	_, err := c.CreatePost(context.Background(), domain.PostInput{Title: " ", Excerpt: "e", Content: "c"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "title: is required", apiErr.Message)
	assert.NotErrorIs(t, err, client.ErrNotFound)
}

func TestAPIError_FallsBackToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.NewClient(srv.URL)
	c.SetToken("t")
	_, err := c.ListPosts(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestClient_Watch(t *testing.T) {
	srv, hub := startServer(t)
	c := loggedIn(t, srv, client.WithBackoff(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.PostEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(e domain.PostEvent) { received <- e })
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	id, err := c.CreatePost(ctx, domain.PostInput{Title: "Watched", Excerpt: "e", Content: "c"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, domain.EventCreated, e.Type)
		assert.Equal(t, id, e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestClient_WatchRejectedToken(t *testing.T) {
	srv, _ := startServer(t)
	c := client.NewClient(srv.URL, client.WithBackoff(time.Millisecond))
	c.SetToken("bogus")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Watch(ctx, func(domain.PostEvent) {})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
