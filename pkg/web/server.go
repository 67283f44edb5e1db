// Package web wires the HTTP router, the optional gRPC server and the REST gateway
// onto a single listener.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"

	"github.com/solorad/blog-crud/pkg/log"
)

const shutdownTimeout = 30 * time.Second

// NewRouter returns a router with the common middleware and /static mounted
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(chimiddleware.Recoverer)
	r.Handle("/static/*", staticHandler())
	return r
}

// Server serves HTTP and, when configured, gRPC on the same address
type Server struct {
	addr   string
	router http.Handler
	grpc   *grpc.Server
}

// NewServer returns a server for addr. grpcServer may be nil.
func NewServer(addr string, router http.Handler, grpcServer *grpc.Server) *Server {
	return &Server{addr: addr, router: router, grpc: grpcServer}
}

// Handler returns the root handler. gRPC calls arrive as cleartext HTTP/2.
func (s *Server) Handler() http.Handler {
	if s.grpc == nil {
		return s.router
	}
	return h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isGRPC(r) {
			s.grpc.ServeHTTP(w, r)
			return
		}
		s.router.ServeHTTP(w, r)
	}), &http2.Server{})
}

func isGRPC(r *http.Request) bool {
	return r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc")
}

// Start serves until ctx is done, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("HTTP server is starting on %s", lis.Addr())
		if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Infof("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if s.grpc != nil {
			s.grpc.Stop()
		}
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Endpoint turns a listen address into one a local client can dial
func Endpoint(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
