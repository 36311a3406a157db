package httpserver

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/blackmichael/blog-admin/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	}
	return template.Must(template.New("admin").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type loginPage struct {
	Error string
}

type dashboardPage struct {
	Posts []domain.Post
	Error string
}

type formPage struct {
	Heading      string
	Action       string
	Submit       string
	PublishLabel string
	Post         domain.PostInput
	Error        string
}

type errorPage struct {
	Status  int
	Message string
}

func (s *Server) registerAdmin(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin", s.handleAdminHome)
	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)
	mux.HandleFunc("POST /admin/logout", s.handleAdminLogout)
	mux.HandleFunc("GET /admin/new", s.requireAdmin(s.handleAdminNewForm))
	mux.HandleFunc("POST /admin/new", s.requireAdmin(s.handleAdminCreate))
	mux.HandleFunc("GET /admin/edit/{id}", s.requireAdmin(s.handleAdminEditForm))
	mux.HandleFunc("POST /admin/edit/{id}", s.requireAdmin(s.handleAdminUpdate))
	mux.HandleFunc("POST /admin/delete/{id}", s.requireAdmin(s.handleAdminDelete))
}

// requireAdmin sends visitors without a valid session back to the login
// form.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.authenticate(r); err != nil {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleAdminHome(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		s.render(w, http.StatusOK, "login", loginPage{})
		return
	}

	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.render(w, statusFor(err), "dashboard", dashboardPage{Error: "Failed to load posts"})
		return
	}
	s.render(w, http.StatusOK, "dashboard", dashboardPage{Posts: posts})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login", loginPage{Error: "Invalid form"})
		return
	}

	token, err := s.gate.Login(r.PostFormValue("password"))
	if err != nil {
		s.logger.Warn("admin login failed", "remote", r.RemoteAddr)
		s.render(w, http.StatusUnauthorized, "login", loginPage{Error: "Invalid password"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminNewForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "form", newPostForm(domain.PostInput{}, ""))
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parsePostForm(w, r)
	if !ok {
		return
	}

	if _, err := s.posts.Create(r.Context(), in); err != nil {
		s.render(w, statusFor(err), "form", newPostForm(in, formError(err)))
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminEditForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, err)
		return
	}

	in := domain.PostInput{
		Title:     post.Title,
		Excerpt:   post.Excerpt,
		Content:   post.Content,
		Published: post.Published,
	}
	s.render(w, http.StatusOK, "form", editPostForm(id, in, ""))
}

func (s *Server) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	in, ok := s.parsePostForm(w, r)
	if !ok {
		return
	}

	if err := s.posts.Update(r.Context(), id, in); err != nil {
		if statusFor(err) == http.StatusNotFound {
			s.renderError(w, err)
			return
		}
		s.render(w, statusFor(err), "form", editPostForm(id, in, formError(err)))
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.renderError(w, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) parsePostForm(w http.ResponseWriter, r *http.Request) (domain.PostInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "error", errorPage{Status: http.StatusBadRequest, Message: "Invalid form"})
		return domain.PostInput{}, false
	}
	return domain.PostInput{
		Title:     r.PostFormValue("title"),
		Excerpt:   r.PostFormValue("excerpt"),
		Content:   r.PostFormValue("content"),
		Published: r.PostFormValue("published") == "on",
	}, true
}

func newPostForm(in domain.PostInput, errMsg string) formPage {
	return formPage{
		Heading:      "Create New Post",
		Action:       "/admin/new",
		Submit:       "Create Post",
		PublishLabel: "Publish immediately",
		Post:         in,
		Error:        errMsg,
	}
}

func editPostForm(id string, in domain.PostInput, errMsg string) formPage {
	return formPage{
		Heading:      "Edit Post",
		Action:       "/admin/edit/" + id,
		Submit:       "Update Post",
		PublishLabel: "Published",
		Post:         in,
		Error:        errMsg,
	}
}

func formError(err error) string {
	if statusFor(err) == http.StatusBadRequest {
		return err.Error()
	}
	return "Failed to save post"
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := "Something went wrong"
	if status == http.StatusNotFound {
		msg = "Post not found"
	} else {
		s.logger.Error("admin request failed", "error", err)
	}
	s.render(w, status, "error", errorPage{Status: status, Message: msg})
}

// render executes the named template into a buffer first so a template
// failure never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
