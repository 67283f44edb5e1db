package blog

import (
	"bytes"
	"context"
	"embed"
	"errors"
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

// Failure messages sent to clients. Every error collapses to one of these.
const (
	msgList    = "Error fetching blogs"
	msgSave    = "Error saving blog"
	msgEdit    = "Error fetching blog for editing"
	msgUpdate  = "Error updating blog"
	msgDelete  = "Error deleting blog"
	msgMissing = "Blog not found"
)

var pageTemplates = []string{"index.html", "add.html", "edit.html"}

// PageData is passed to the base layout
type PageData struct {
	Title   string
	Content any
}

// Handlers serves the blog HTML pages
type Handlers struct {
	sessions  pkg.SessionManager
	templates map[string]*template.Template
	timeout   time.Duration
}

// NewHandlers parses the page templates and returns handlers using sessions for store access.
// timeout bounds each store operation.
func NewHandlers(sessions pkg.SessionManager, timeout time.Duration) (*Handlers, error) {
	templates := make(map[string]*template.Template, len(pageTemplates))
	for _, page := range pageTemplates {
		tmpl, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Handlers{sessions: sessions, templates: templates, timeout: timeout}, nil
}

// Register mounts the blog routes
func (h *Handlers) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/add", h.AddPage)
	r.Post("/add", h.Create)
	r.Post("/delete", h.Delete)
	r.Get("/edit/{id}", h.EditPage)
	r.Post("/update/{id}", h.Update)
}

// List renders every blog
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := opContext(r.Context(), h.timeout)
	defer cancel()
	err := pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		blogs, err := s.Blogs().List(ctx)
		if err != nil {
			return err
		}
		return h.render(w, "index.html", "Blogs", struct{ Blogs []models.BlogItem }{blogs})
	})
	if err != nil {
		fail(w, msgList, http.StatusInternalServerError, err)
	}
}

// AddPage renders the add form. It does not touch the store.
func (h *Handlers) AddPage(w http.ResponseWriter, r *http.Request) {
	if err := h.render(w, "add.html", "Add blog", nil); err != nil {
		fail(w, msgEdit, http.StatusInternalServerError, err)
	}
}

// Create inserts the posted fields as a new blog
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(w, r)
	if err != nil {
		fail(w, msgSave, http.StatusInternalServerError, err)
		return
	}
	ctx, cancel := opContext(r.Context(), h.timeout)
	defer cancel()
	err = pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		_, err := s.Blogs().Insert(ctx, fields)
		return err
	})
	if err != nil {
		fail(w, msgSave, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete removes the blog whose id is posted in the body
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(w, r)
	if err != nil {
		fail(w, msgDelete, http.StatusInternalServerError, err)
		return
	}
	id := idFrom(fields)
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ctx, cancel := opContext(r.Context(), h.timeout)
	defer cancel()
	err = pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		return s.Blogs().Delete(ctx, id)
	})
	if err != nil {
		fail(w, msgDelete, http.StatusInternalServerError, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditPage renders the edit form for one blog
func (h *Handlers) EditPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := opContext(r.Context(), h.timeout)
	defer cancel()
	err := pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		blog, err := s.Blogs().Get(ctx, id)
		if err != nil {
			return err
		}
		return h.render(w, "edit.html", "Edit blog", struct{ Blog *models.BlogItem }{blog})
	})
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		fail(w, msgMissing, http.StatusNotFound, err)
	case err != nil:
		fail(w, msgEdit, http.StatusInternalServerError, err)
	}
}

// Update sets the posted fields on an existing blog
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := parseFields(w, r)
	if err != nil {
		fail(w, msgUpdate, http.StatusInternalServerError, err)
		return
	}
	ctx, cancel := opContext(r.Context(), h.timeout)
	defer cancel()
	err = pkg.WithSession(ctx, h.sessions, func(s pkg.Session) error {
		_, err := s.Blogs().Update(ctx, id, fields)
		return err
	})
	switch {
	case errors.Is(err, pkg.ErrNotFound):
		fail(w, msgMissing, http.StatusNotFound, err)
	case err != nil:
		fail(w, msgUpdate, http.StatusInternalServerError, err)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// render executes a page into a buffer first so a template error can still become a 500
func (h *Handlers) render(w http.ResponseWriter, page, title string, data any) error {
	tmpl, ok := h.templates[page]
	if !ok {
		return fmt.Errorf("template %s not found", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", PageData{Title: title, Content: data}); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Warningf("Failed to write %s: %v", page, err)
	}
	return nil
}

func fail(w http.ResponseWriter, msg string, code int, err error) {
	log.Errorf("%s: %v", msg, err)
	http.Error(w, msg, code)
}

// opContext detaches store work from client cancellation and bounds it by timeout
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
