package pkg

import (
	"context"
	"errors"

	"github.com/solorad/blog-crud/pkg/models"
)

// ErrNotFound is returned by accessors when no document matches the id
var ErrNotFound = errors.New("document not found")

// SessionManager opens connections to the document store on demand
type SessionManager interface {
	Open(ctx context.Context) (Session, error)
}

// Session is a connection handle scoped to a single request.
// Close must be called exactly once.
type Session interface {
	Blogs() BlogAccessor
	Users() UserAccessor
	Close(ctx context.Context) error
}

// BlogAccessor works with the blog collection
type BlogAccessor interface {
	List(ctx context.Context) ([]models.BlogItem, error)
	Get(ctx context.Context, id string) (*models.BlogItem, error)
	Insert(ctx context.Context, fields models.Fields) (string, error)
	Update(ctx context.Context, id string, fields models.Fields) (*models.BlogItem, error)
	Delete(ctx context.Context, id string) error
}

// UserAccessor works with the users collection
type UserAccessor interface {
	List(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, user models.User) (string, error)
}
