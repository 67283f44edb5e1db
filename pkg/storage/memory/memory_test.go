package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/models"
)

func openBlogs(t *testing.T, st *Store) pkg.BlogAccessor {
	t.Helper()
	s, err := st.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s.Blogs()
}

func TestInsertList(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())

	payloads := []models.Fields{
		{"title": "Hello", "body": "World"},
		{"title": "Second"},
		{},
	}
	ids := map[string]bool{}
	for _, p := range payloads {
		id, err := b.Insert(ctx, p)
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if len(id) != idLength {
			t.Errorf("Insert() id = %q, want %d chars", id, idLength)
		}
		if ids[id] {
			t.Errorf("duplicate id %q", id)
		}
		ids[id] = true
	}

	list, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != len(payloads) {
		t.Fatalf("List() len = %d, want %d", len(list), len(payloads))
	}
	for i, item := range list {
		if !ids[item.ID] {
			t.Errorf("List()[%d].ID = %q not returned by Insert", i, item.ID)
		}
		for k, v := range payloads[i] {
			if item.Fields[k] != v {
				t.Errorf("List()[%d].Fields[%q] = %v, want %v", i, k, item.Fields[k], v)
			}
		}
	}
}

func TestInsertIgnoresReservedFields(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())
	id, err := b.Insert(ctx, models.Fields{"_id": "mine", "id": "mine", "title": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if id == "mine" {
		t.Fatal("client chose the id")
	}
	got, err := b.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Fields["_id"]; ok {
		t.Errorf("Fields = %v, reserved key stored", got.Fields)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())
	a, _ := b.Insert(ctx, models.Fields{"title": "a"})
	c, _ := b.Insert(ctx, models.Fields{"title": "c"})

	if err := b.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
	list, _ := b.List(ctx)
	if len(list) != 2 {
		t.Fatalf("List() len = %d after deleting missing id, want 2", len(list))
	}

	if err := b.Delete(ctx, a); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, _ = b.List(ctx)
	if len(list) != 1 || list[0].ID != c {
		t.Fatalf("List() = %+v, want only %q", list, c)
	}
	if err := b.Delete(ctx, a); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())
	id, _ := b.Insert(ctx, models.Fields{"title": "old", "body": "kept"})

	got, err := b.Update(ctx, id, models.Fields{"title": "new", "id": "other"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != id || got.Fields["title"] != "new" || got.Fields["body"] != "kept" {
		t.Errorf("Update() = %+v", got)
	}

	if _, err := b.Update(ctx, "missing", models.Fields{"title": "x"}); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	list, _ := b.List(ctx)
	if len(list) != 1 {
		t.Errorf("List() len = %d, want 1", len(list))
	}
}

func TestGetNotFound(t *testing.T) {
	b := openBlogs(t, New())
	if _, err := b.Get(context.Background(), "missing"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestReturnedFieldsAreCopies(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())
	id, _ := b.Insert(ctx, models.Fields{"title": "a"})
	got, _ := b.Get(ctx, id)
	got.Fields["title"] = "mutated"
	again, _ := b.Get(ctx, id)
	if again.Fields["title"] != "a" {
		t.Errorf("stored document mutated through returned copy: %v", again.Fields)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	s, err := st.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Active() != 1 {
		t.Errorf("Active() = %d, want 1", st.Active())
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if st.Active() != 0 {
		t.Errorf("Active() = %d, want 0", st.Active())
	}
	if err := s.Close(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("second Close() error = %v, want ErrSessionClosed", err)
	}
	if _, err := s.Blogs().List(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("List() on closed session error = %v, want ErrSessionClosed", err)
	}
	if st.Active() != 0 {
		t.Errorf("Active() = %d after double close, want 0", st.Active())
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	st := New()
	s, _ := st.Open(ctx)
	defer s.Close(ctx)

	if _, err := s.Users().Insert(ctx, models.User{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}
	list, err := s.Users().List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Ada" || list[0].Email != "ada@example.com" || list[0].ID == "" {
		t.Errorf("List() = %+v", list)
	}
}

func TestUpdateIgnoresPathKeys(t *testing.T) {
	ctx := context.Background()
	b := openBlogs(t, New())
	id, _ := b.Insert(ctx, models.Fields{"title": "t", "a.b": "dotted"})

	got, err := b.Update(ctx, id, models.Fields{"a.b": "changed", "$set": "x"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Fields) != 1 || got.Fields["title"] != "t" {
		t.Errorf("Update() = %+v, want only title", got)
	}
}
