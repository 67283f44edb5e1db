package v1

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solorad/blog-crud/pkg/log"
)

// RegisterBlogServiceHandlerFromEndpoint dials endpoint and registers the REST routes on mux.
// The connection is closed when ctx is done.
func RegisterBlogServiceHandlerFromEndpoint(ctx context.Context, mux *runtime.ServeMux, endpoint string, opts []grpc.DialOption) error {
	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil {
			log.Errorf("Failed to close conn to %s: %v", endpoint, err)
		}
	}()
	return RegisterBlogServiceHandlerClient(ctx, mux, NewBlogServiceClient(conn))
}

// RegisterBlogServiceHandlerClient registers the REST routes on mux, forwarding to client
func RegisterBlogServiceHandlerClient(ctx context.Context, mux *runtime.ServeMux, client BlogServiceClient) error {
	routes := []struct {
		method  string
		pattern string
		call    func(context.Context, *http.Request, runtime.Marshaler, map[string]string) (proto.Message, error)
	}{
		{http.MethodGet, "/api/v1/blogs", func(ctx context.Context, r *http.Request, _ runtime.Marshaler, _ map[string]string) (proto.Message, error) {
			return client.ListBlogs(ctx, &emptypb.Empty{})
		}},
		{http.MethodGet, "/api/v1/blogs/{id}", func(ctx context.Context, r *http.Request, _ runtime.Marshaler, p map[string]string) (proto.Message, error) {
			return client.GetBlog(ctx, wrapperspb.String(p["id"]))
		}},
		{http.MethodPost, "/api/v1/blogs", func(ctx context.Context, r *http.Request, in runtime.Marshaler, _ map[string]string) (proto.Message, error) {
			body, err := decodeStruct(in, r)
			if err != nil {
				return nil, err
			}
			return client.CreateBlog(ctx, body)
		}},
		{http.MethodPut, "/api/v1/blogs/{id}", func(ctx context.Context, r *http.Request, in runtime.Marshaler, p map[string]string) (proto.Message, error) {
			body, err := decodeStruct(in, r)
			if err != nil {
				return nil, err
			}
			body.Fields[IDField] = structpb.NewStringValue(p["id"])
			return client.UpdateBlog(ctx, body)
		}},
		{http.MethodDelete, "/api/v1/blogs/{id}", func(ctx context.Context, r *http.Request, _ runtime.Marshaler, p map[string]string) (proto.Message, error) {
			return client.DeleteBlog(ctx, wrapperspb.String(p["id"]))
		}},
	}
	for _, rt := range routes {
		call := rt.call
		err := mux.HandlePath(rt.method, rt.pattern, func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
			ctx := r.Context()
			inbound, outbound := runtime.MarshalerForRequest(mux, r)
			resp, err := call(ctx, r, inbound, pathParams)
			if err != nil {
				runtime.HTTPError(ctx, mux, outbound, w, r, err)
				return
			}
			runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeStruct(in runtime.Marshaler, r *http.Request) (*structpb.Struct, error) {
	body := &structpb.Struct{}
	if err := in.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if body.Fields == nil {
		body.Fields = map[string]*structpb.Value{}
	}
	return body, nil
}
