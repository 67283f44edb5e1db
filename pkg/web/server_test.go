package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	v1 "github.com/solorad/blog-crud/pkg/api/v1"
)

func TestStatic(t *testing.T) {
	r := NewRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "font-family") {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", rec.Code)
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct{ in, want string }{
		{":3000", "localhost:3000"},
		{"0.0.0.0:3000", "localhost:3000"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
		{"[::]:3000", "localhost:3000"},
		{"bad", "bad"},
	}
	for _, tt := range tests {
		if got := Endpoint(tt.in); got != tt.want {
			t.Errorf("Endpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type panicServer struct {
	v1.UnimplementedBlogServiceServer
}

func (panicServer) ListBlogs(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	panic("boom")
}

// TestSinglePort checks that one listener answers both plain HTTP and gRPC.
func TestSinglePort(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRouter()
	r.Get("/hello", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "hi") })
	srv := NewServer(lis.Addr().String(), r, NewGRPCServer(panicServer{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	}()

	resp, err := http.Get("http://" + lis.Addr().String() + "/hello")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "hi" {
		t.Errorf("GET /hello = %q", body)
	}

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()

	_, err = v1.NewBlogServiceClient(conn).ListBlogs(callCtx, &emptypb.Empty{})
	if status.Code(err) != codes.Internal {
		t.Errorf("ListBlogs() error = %v, want Internal from recovered panic", err)
	}
	_, err = v1.NewBlogServiceClient(conn).GetBlog(callCtx, wrapperspb.String("x"))
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("GetBlog() error = %v, want Unimplemented", err)
	}
}
