// Package users serves the users demo pages. It shares one store connection across
// requests instead of opening one per request.
package users

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/log"
	"github.com/solorad/blog-crud/pkg/models"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	msgList   = "Error fetching users"
	msgCreate = "Error creating user"
)

// Handlers serves the users demo
type Handlers struct {
	sessions  pkg.SessionManager
	templates map[string]*template.Template
	timeout   time.Duration
}

// NewHandlers parses templates and returns the users handlers
func NewHandlers(sessions pkg.SessionManager, timeout time.Duration) (*Handlers, error) {
	templates := map[string]*template.Template{}
	for _, page := range []string{"index.html", "users.html"} {
		tmpl, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Handlers{sessions: sessions, templates: templates, timeout: timeout}, nil
}

// Register mounts the users routes
func (h *Handlers) Register(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
}

// Home renders the landing page
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if err := h.render(w, "index.html", "Home", nil); err != nil {
		log.Errorf("render home: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// List renders every user
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()
	err := pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		users, err := s.Users().List(ctx)
		if err != nil {
			return err
		}
		return h.render(w, "users.html", "Users", struct{ Users []models.User }{users})
	})
	if err != nil {
		log.Errorf("%s: %v", msgList, err)
		http.Error(w, msgList, http.StatusInternalServerError)
	}
}

// Create stores the posted name and email
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Errorf("%s: %v", msgCreate, err)
		http.Error(w, msgCreate, http.StatusInternalServerError)
		return
	}
	user := models.User{Name: r.PostForm.Get("name"), Email: r.PostForm.Get("email")}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()
	err := pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		_, err := s.Users().Insert(ctx, user)
		return err
	})
	if err != nil {
		log.Errorf("%s: %v", msgCreate, err)
		http.Error(w, msgCreate, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *Handlers) render(w http.ResponseWriter, page, title string, data any) error {
	var buf bytes.Buffer
	err := h.templates[page].ExecuteTemplate(&buf, "base", struct {
		Title   string
		Content any
	}{title, data})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
	return nil
}
