package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/blog-admin/internal/domain"
)

// sessionCookie carries the issued token for the admin pages.
const sessionCookie = "admin_session"

type principalKey struct{}

// PrincipalFrom returns the principal attached by requireAuth.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

type loginRequest struct {
	Password *string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.gate.Login(*req.Password)
	if err != nil {
		s.logger.Warn("admin login failed", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// requireAuth verifies the caller's credential on every request before
// calling next.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
	}
}

func (s *Server) authenticate(r *http.Request) (domain.Principal, error) {
	credential := credentialFrom(r)
	if credential == "" {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return s.gate.Verify(r.Context(), credential)
}

// credentialFrom reads the bearer token, falling back to the session cookie.
// Browsers cannot set headers on websocket handshakes, so upgrades may also
// pass the token as a query parameter.
func credentialFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}
