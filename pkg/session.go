package pkg

import (
	"context"
	"time"

	"github.com/solorad/blog-crud/pkg/log"
)

const closeTimeout = 5 * time.Second

// WithSession opens a session, passes it to fn and closes it once fn returns or panics.
// A failed Close is logged and never replaces the result of fn.
func WithSession(ctx context.Context, sessions SessionManager, fn func(Session) error) error {
	s, err := sessions.Open(ctx)
	if err != nil {
		log.Errorf("Error connecting to store: %v", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			log.Errorf("Error disconnecting from store: %v", err)
		}
	}()
	return fn(s)
}
