// Package memory is an in-process document store with the same contract as the
// MongoDB store. It is used for local runs without a database and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/models"
)

const (
	idAlphabet = "0123456789abcdef"
	idLength   = 24
)

// ErrSessionClosed is returned when a closed session is used or closed again
var ErrSessionClosed = errors.New("memory: session already closed")

type collection struct {
	order []string
	docs  map[string]models.Fields
}

func newCollection() *collection {
	return &collection{docs: make(map[string]models.Fields)}
}

// Store keeps documents in memory. It implements pkg.SessionManager.
type Store struct {
	mu     sync.RWMutex
	blogs  *collection
	users  *collection
	opened atomic.Int64
	closed atomic.Int64
}

// New returns an empty store
func New() *Store {
	return &Store{blogs: newCollection(), users: newCollection()}
}

// Open returns a new session over the store
func (s *Store) Open(ctx context.Context) (pkg.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.opened.Add(1)
	return &session{store: s}, nil
}

// Active reports the number of sessions opened and not yet closed
func (s *Store) Active() int64 {
	return s.opened.Load() - s.closed.Load()
}

func newID() (string, error) {
	id, err := nanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", fmt.Errorf("memory: generate id: %w", err)
	}
	return id, nil
}

type session struct {
	store  *Store
	closed atomic.Bool
}

func (s *session) Blogs() pkg.BlogAccessor { return &blogs{s} }

func (s *session) Users() pkg.UserAccessor { return &users{s} }

func (s *session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	s.store.closed.Add(1)
	return nil
}

func (s *session) check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return ctx.Err()
}

type blogs struct{ s *session }

func (b *blogs) List(ctx context.Context) ([]models.BlogItem, error) {
	if err := b.s.check(ctx); err != nil {
		return nil, err
	}
	st := b.s.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]models.BlogItem, 0, len(st.blogs.order))
	for _, id := range st.blogs.order {
		out = append(out, models.BlogItem{ID: id, Fields: st.blogs.docs[id].Copy()})
	}
	return out, nil
}

func (b *blogs) Get(ctx context.Context, id string) (*models.BlogItem, error) {
	if err := b.s.check(ctx); err != nil {
		return nil, err
	}
	st := b.s.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	doc, ok := st.blogs.docs[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &models.BlogItem{ID: id, Fields: doc.Copy()}, nil
}

func (b *blogs) Insert(ctx context.Context, fields models.Fields) (string, error) {
	if err := b.s.check(ctx); err != nil {
		return "", err
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	st := b.s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	st.blogs.docs[id] = fields.Clean()
	st.blogs.order = append(st.blogs.order, id)
	return id, nil
}

func (b *blogs) Update(ctx context.Context, id string, fields models.Fields) (*models.BlogItem, error) {
	if err := b.s.check(ctx); err != nil {
		return nil, err
	}
	st := b.s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	doc, ok := st.blogs.docs[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	for k, v := range fields.Clean() {
		doc[k] = v
	}
	return &models.BlogItem{ID: id, Fields: doc.Copy()}, nil
}

func (b *blogs) Delete(ctx context.Context, id string) error {
	if err := b.s.check(ctx); err != nil {
		return err
	}
	st := b.s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.blogs.docs[id]; !ok {
		return nil
	}
	delete(st.blogs.docs, id)
	for i, v := range st.blogs.order {
		if v == id {
			st.blogs.order = append(st.blogs.order[:i], st.blogs.order[i+1:]...)
			break
		}
	}
	return nil
}

type users struct{ s *session }

func (u *users) List(ctx context.Context) ([]models.User, error) {
	if err := u.s.check(ctx); err != nil {
		return nil, err
	}
	st := u.s.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]models.User, 0, len(st.users.order))
	for _, id := range st.users.order {
		doc := st.users.docs[id]
		name, _ := doc["name"].(string)
		email, _ := doc["email"].(string)
		out = append(out, models.User{ID: id, Name: name, Email: email})
	}
	return out, nil
}

func (u *users) Insert(ctx context.Context, user models.User) (string, error) {
	if err := u.s.check(ctx); err != nil {
		return "", err
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	st := u.s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	st.users.docs[id] = models.Fields{"name": user.Name, "email": user.Email}
	st.users.order = append(st.users.order, id)
	return id, nil
}
