package storage

import (
	"context"

	"github.com/solorad/blog-crud/pkg"
	"github.com/solorad/blog-crud/pkg/config"
	"github.com/solorad/blog-crud/pkg/log"
)

// Dialer opens a dedicated client per session and disconnects it on Close.
// Nothing is shared between sessions.
type Dialer struct {
	cfg config.Mongo
}

// NewDialer returns a Dialer for cfg
func NewDialer(cfg config.Mongo) *Dialer {
	return &Dialer{cfg: cfg}
}

// Open connects to the store
func (d *Dialer) Open(ctx context.Context) (pkg.Session, error) {
	client, err := Connect(ctx, d.cfg)
	if err != nil {
		return nil, err
	}
	if log.V(1) {
		log.Infof("Connected to MongoDB database %s", d.cfg.Database)
	}
	return &session{client: client, owned: true}, nil
}

// Shared hands out sessions over a single client connected at startup.
// Closing such a session leaves the client connected.
type Shared struct {
	client *MongoClient
}

// NewShared wraps an already connected client
func NewShared(client *MongoClient) *Shared {
	return &Shared{client: client}
}

// Open returns a view over the shared client
func (s *Shared) Open(ctx context.Context) (pkg.Session, error) {
	return &session{client: s.client}, nil
}

// Disconnect closes the shared client
func (s *Shared) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type session struct {
	client *MongoClient
	owned  bool
}

func (s *session) Blogs() pkg.BlogAccessor {
	return &blogCollection{coll: s.client.GetCollection(s.client.cfg.Collection)}
}

func (s *session) Users() pkg.UserAccessor {
	return &userCollection{coll: s.client.GetCollection(s.client.cfg.UserCollection)}
}

func (s *session) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	if log.V(1) {
		log.Infof("Disconnected from MongoDB")
	}
	return nil
}
