package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blackmichael/blog-admin/internal/domain"
)

type postRequest struct {
	Title     *string `json:"title"`
	Excerpt   *string `json:"excerpt"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

// errBadBody is reported for bodies that are not a JSON post object.
var errBadBody = errors.New("invalid request body")

// decodePostRequest parses a create or update body. Title, excerpt and
// content must be present; published defaults to false.
func decodePostRequest(w http.ResponseWriter, r *http.Request) (domain.PostInput, error) {
	var req postRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.PostInput{}, errBadBody
	}

	required := []struct {
		field string
		value *string
	}{
		{"title", req.Title},
		{"excerpt", req.Excerpt},
		{"content", req.Content},
	}
	for _, f := range required {
		if f.value == nil {
			return domain.PostInput{}, &domain.ValidationError{Field: f.field, Message: "is required"}
		}
	}

	in := domain.PostInput{
		Title:   *req.Title,
		Excerpt: *req.Excerpt,
		Content: *req.Content,
	}
	if req.Published != nil {
		in.Published = *req.Published
	}
	return in, nil
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list posts", "error", err)
		writeError(w, statusFor(err), "Failed to fetch posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, "get post", id, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	in, err := decodePostRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.posts.Create(r.Context(), in)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("failed to create post", "error", err)
			writeError(w, status, "Failed to create post")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
	})
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	in, err := decodePostRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.posts.Update(r.Context(), id, in); err != nil {
		s.writeServiceError(w, "update post", id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.posts.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, "delete post", id, err)
		return
	}
	s.logger.Info("post deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePublicList(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListPublished(r.Context())
	if err != nil {
		s.logger.Error("failed to list published posts", "error", err)
		writeError(w, statusFor(err), "Failed to fetch posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePublicPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	post, err := s.posts.GetPublishedBySlug(r.Context(), slug)
	if err != nil {
		s.writeServiceError(w, "get published post", slug, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// writeServiceError surfaces the error message verbatim, except for missing
// posts which get a fixed message.
func (s *Server) writeServiceError(w http.ResponseWriter, op, key string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		writeError(w, status, "Post not found")
	case http.StatusInternalServerError:
		s.logger.Error("post request failed", "op", op, "key", key, "error", err)
		writeError(w, status, err.Error())
	default:
		writeError(w, status, err.Error())
	}
}
