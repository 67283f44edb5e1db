package web

import (
	"context"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	v1 "github.com/solorad/blog-crud/pkg/api/v1"
	"github.com/solorad/blog-crud/pkg/log"
)

// NewGRPCServer creates a gRPC server with recovery and logging interceptors
// and registers the blog service and reflection.
func NewGRPCServer(blogServer v1.BlogServiceServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
		),
	)
	v1.RegisterBlogServiceServer(s, blogServer)
	// Register reflection service on gRPC server.
	reflection.Register(s)
	return s
}

// LoggingInterceptor logs the method, duration and error of every unary call
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Errorf("rpc %s failed after %s: %v", info.FullMethod, time.Since(start), err)
	} else {
		log.Infof("rpc %s completed in %s", info.FullMethod, time.Since(start))
	}
	return resp, err
}

// RecoveryInterceptor turns a panic in a handler into codes.Internal
func RecoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic recovered in %s: %v\n%s", info.FullMethod, r, debug.Stack())
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}
