package blog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/models"
	"github.com/solorad/blog-crud/pkg/storage/memory"
)

// countingManager wraps the memory store, counts session opens and closes
// and can make either Open or every blog operation fail.
type countingManager struct {
	store   *memory.Store
	openErr error
	opErr   error
	opens   atomic.Int32
	closes  atomic.Int32
}

func (m *countingManager) Open(ctx context.Context) (pkg.Session, error) {
	m.opens.Add(1)
	if m.openErr != nil {
		return nil, m.openErr
	}
	s, err := m.store.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &countingSession{Session: s, m: m}, nil
}

type countingSession struct {
	pkg.Session
	m *countingManager
}

func (s *countingSession) Blogs() pkg.BlogAccessor {
	if s.m.opErr != nil {
		return failingBlogs{s.m.opErr}
	}
	return s.Session.Blogs()
}

func (s *countingSession) Close(ctx context.Context) error {
	s.m.closes.Add(1)
	return s.Session.Close(ctx)
}

type failingBlogs struct{ err error }

func (f failingBlogs) List(context.Context) ([]models.BlogItem, error) { return nil, f.err }
func (f failingBlogs) Get(context.Context, string) (*models.BlogItem, error) {
	return nil, f.err
}
func (f failingBlogs) Insert(context.Context, models.Fields) (string, error) { return "", f.err }
func (f failingBlogs) Update(context.Context, string, models.Fields) (*models.BlogItem, error) {
	return nil, f.err
}
func (f failingBlogs) Delete(context.Context, string) error { return f.err }

func newTestRouter(t *testing.T) (http.Handler, *countingManager) {
	t.Helper()
	m := &countingManager{store: memory.New()}
	h, err := NewHandlers(m, time.Second)
	if err != nil {
		t.Fatalf("NewHandlers() error = %v", err)
	}
	r := chi.NewRouter()
	h.Register(r)
	return r, m
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, h http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, target, "application/x-www-form-urlencoded", values.Encode())
}

func listBlogs(t *testing.T, st *memory.Store) []models.BlogItem {
	t.Helper()
	ctx := context.Background()
	s, err := st.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)
	list, err := s.Blogs().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != to {
		t.Fatalf("Location = %q, want %q", loc, to)
	}
}

func TestAddThenList(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"form", "application/x-www-form-urlencoded", "title=Hello&body=World"},
		{"json", "application/json", `{"title":"Hello","body":"World"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRouter(t)
			requireRedirect(t, do(t, r, http.MethodPost, "/add", tt.contentType, tt.body), "/")

			list := listBlogs(t, m.store)
			if len(list) != 1 {
				t.Fatalf("stored %d blogs, want 1", len(list))
			}
			if list[0].ID == "" || list[0].Fields["title"] != "Hello" || list[0].Fields["body"] != "World" {
				t.Errorf("stored blog = %+v", list[0])
			}

			rec := do(t, r, http.MethodGet, "/", "", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("GET / status = %d", rec.Code)
			}
			page := rec.Body.String()
			if !strings.Contains(page, "Hello") || !strings.Contains(page, "World") {
				t.Errorf("GET / page missing posted fields:\n%s", page)
			}
			if !strings.Contains(page, list[0].ID) {
				t.Errorf("GET / page missing id %q", list[0].ID)
			}
		})
	}
}

func TestAddPage(t *testing.T) {
	r, m := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/add", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/add"`) {
		t.Errorf("add page missing form:\n%s", rec.Body.String())
	}
	if m.opens.Load() != 0 {
		t.Errorf("add page opened %d sessions, want 0", m.opens.Load())
	}
}

func TestDelete(t *testing.T) {
	r, m := newTestRouter(t)
	for _, title := range []string{"a", "b", "c"} {
		requireRedirect(t, postForm(t, r, "/add", url.Values{"title": {title}}), "/")
	}
	before := listBlogs(t, m.store)

	// Unknown id: no error, nothing removed.
	requireRedirect(t, postForm(t, r, "/delete", url.Values{"id": {"does-not-exist"}}), "/")
	if got := listBlogs(t, m.store); len(got) != len(before) {
		t.Fatalf("after deleting unknown id: %d blogs, want %d", len(got), len(before))
	}

	// Known id: exactly that document goes.
	victim := before[1].ID
	requireRedirect(t, do(t, r, http.MethodPost, "/delete", "application/json", `{"id":"`+victim+`"}`), "/")
	after := listBlogs(t, m.store)
	if len(after) != 2 {
		t.Fatalf("after delete: %d blogs, want 2", len(after))
	}
	for _, b := range after {
		if b.ID == victim {
			t.Errorf("deleted blog %q still listed", victim)
		}
	}
	if after[0].ID != before[0].ID || after[1].ID != before[2].ID {
		t.Errorf("unexpected survivors %+v", after)
	}

	// Missing id in the body is a no-op.
	requireRedirect(t, postForm(t, r, "/delete", url.Values{}), "/")
	if got := listBlogs(t, m.store); len(got) != 2 {
		t.Errorf("after empty delete: %d blogs, want 2", len(got))
	}
}

func TestEditAndUpdate(t *testing.T) {
	r, m := newTestRouter(t)
	requireRedirect(t, postForm(t, r, "/add", url.Values{"title": {"Hello"}, "body": {"World"}}), "/")
	id := listBlogs(t, m.store)[0].ID

	rec := do(t, r, http.MethodGet, "/edit/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /edit status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="Hello"`) {
		t.Errorf("edit page missing current value:\n%s", rec.Body.String())
	}

	requireRedirect(t, postForm(t, r, "/update/"+id, url.Values{"title": {"Bonjour"}}), "/")
	got := listBlogs(t, m.store)
	if len(got) != 1 || got[0].Fields["title"] != "Bonjour" || got[0].Fields["body"] != "World" {
		t.Errorf("after update = %+v", got)
	}
}

func TestNotFound(t *testing.T) {
	r, m := newTestRouter(t)
	requireRedirect(t, postForm(t, r, "/add", url.Values{"title": {"keep"}}), "/")

	for _, rec := range []*httptest.ResponseRecorder{
		do(t, r, http.MethodGet, "/edit/missing", "", ""),
		postForm(t, r, "/update/missing", url.Values{"title": {"x"}}),
	} {
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != msgMissing {
			t.Errorf("body = %q, want %q", rec.Body.String(), msgMissing)
		}
	}
	got := listBlogs(t, m.store)
	if len(got) != 1 || got[0].Fields["title"] != "keep" {
		t.Errorf("collection changed: %+v", got)
	}
}

func TestFailuresCloseSessionOnce(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		msg         string
	}{
		{"list", http.MethodGet, "/", "", "", msgList},
		{"create", http.MethodPost, "/add", "application/x-www-form-urlencoded", "title=x", msgSave},
		{"delete", http.MethodPost, "/delete", "application/x-www-form-urlencoded", "id=abc", msgDelete},
		{"edit", http.MethodGet, "/edit/abc", "", "", msgEdit},
		{"update", http.MethodPost, "/update/abc", "application/x-www-form-urlencoded", "title=x", msgUpdate},
	}
	const rounds = 5
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newTestRouter(t)
			m.opErr = errors.New("driver exploded")
			for i := 0; i < rounds; i++ {
				rec := do(t, r, tt.method, tt.target, tt.contentType, tt.body)
				if rec.Code != http.StatusInternalServerError {
					t.Fatalf("status = %d, want 500", rec.Code)
				}
				if strings.TrimSpace(rec.Body.String()) != tt.msg {
					t.Errorf("body = %q, want %q", rec.Body.String(), tt.msg)
				}
			}
			if m.opens.Load() != rounds || m.closes.Load() != rounds {
				t.Errorf("opens = %d, closes = %d, want %d each", m.opens.Load(), m.closes.Load(), rounds)
			}
			if m.store.Active() != 0 {
				t.Errorf("Active() = %d, want 0", m.store.Active())
			}
		})
	}
}

func TestOpenFailure(t *testing.T) {
	r, m := newTestRouter(t)
	m.openErr = errors.New("connection refused")
	rec := do(t, r, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != msgList {
		t.Errorf("body = %q", rec.Body.String())
	}
	if m.closes.Load() != 0 {
		t.Errorf("closes = %d after failed open, want 0", m.closes.Load())
	}
}

func TestSuccessClosesSessionOnce(t *testing.T) {
	r, m := newTestRouter(t)
	requireRedirect(t, postForm(t, r, "/add", url.Values{"title": {"a"}}), "/")
	do(t, r, http.MethodGet, "/", "", "")
	if m.opens.Load() != 2 || m.closes.Load() != 2 {
		t.Errorf("opens = %d, closes = %d, want 2 each", m.opens.Load(), m.closes.Load())
	}
}

func TestMalformedBody(t *testing.T) {
	r, m := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/add", "application/json", `{"title":`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != msgSave {
		t.Errorf("body = %q", rec.Body.String())
	}
	if m.opens.Load() != 0 {
		t.Errorf("opened %d sessions for an unparseable body", m.opens.Load())
	}
}

func TestAddKeepsLargeIntegers(t *testing.T) {
	r, m := newTestRouter(t)
	body := `{"title":"big","views":9007199254740993,"score":1.5,"tags":{"n":9007199254740995}}`
	requireRedirect(t, do(t, r, http.MethodPost, "/add", "application/json", body), "/")

	list := listBlogs(t, m.store)
	if len(list) != 1 {
		t.Fatalf("stored %d blogs, want 1", len(list))
	}
	got := list[0].Fields
	if got["views"] != int64(9007199254740993) {
		t.Errorf("views = %#v", got["views"])
	}
	if got["score"] != 1.5 {
		t.Errorf("score = %#v", got["score"])
	}
	if tags, _ := got["tags"].(map[string]interface{}); tags["n"] != int64(9007199254740995) {
		t.Errorf("tags = %#v", got["tags"])
	}
}

func TestAddRejectsNonObjectJSON(t *testing.T) {
	for _, body := range []string{`null`, `[1]`, `{"a":1} {"b":2}`} {
		r, m := newTestRouter(t)
		rec := do(t, r, http.MethodPost, "/add", "application/json", body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("POST /add %s status = %d, want 500", body, rec.Code)
		}
		if m.opens.Load() != 0 {
			t.Errorf("POST /add %s opened a session", body)
		}
	}
}
