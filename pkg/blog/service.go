package blog

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solorad/blog-crud/pkg"
	v1 "github.com/solorad/blog-crud/pkg/api/v1"
	"github.com/solorad/blog-crud/pkg/log"
	"github.com/solorad/blog-crud/pkg/models"
)

// BlogServiceServer implements v1.BlogServiceServer on top of per-call sessions
type BlogServiceServer struct {
	v1.UnimplementedBlogServiceServer
	sessions pkg.SessionManager
	timeout  time.Duration
}

// NewBlogServiceServer returns a gRPC blog service
func NewBlogServiceServer(sessions pkg.SessionManager, timeout time.Duration) *BlogServiceServer {
	return &BlogServiceServer{sessions: sessions, timeout: timeout}
}

// ListBlogs returns every blog
func (b *BlogServiceServer) ListBlogs(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	ctx, cancel := opContext(ctx, b.timeout)
	defer cancel()
	var blogs []models.BlogItem
	err := pkg.WithSession(ctx, b.sessions, func(s pkg.Session) error {
		var err error
		blogs, err = s.Blogs().List(ctx)
		return err
	})
	if err != nil {
		return nil, internal(msgList, err)
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(blogs))}
	for _, item := range blogs {
		out.Values = append(out.Values, structpb.NewStructValue(toStruct(item)))
	}
	return out, nil
}

// GetBlog returns one blog by id
func (b *BlogServiceServer) GetBlog(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := in.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ctx, cancel := opContext(ctx, b.timeout)
	defer cancel()
	var item *models.BlogItem
	err := pkg.WithSession(ctx, b.sessions, func(s pkg.Session) error {
		var err error
		item, err = s.Blogs().Get(ctx, id)
		return err
	})
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, internal(msgEdit, err)
	}
	return toStruct(*item), nil
}

// CreateBlog inserts the given fields and returns the new id
func (b *BlogServiceServer) CreateBlog(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := models.Fields(in.AsMap())
	ctx, cancel := opContext(ctx, b.timeout)
	defer cancel()
	var id string
	err := pkg.WithSession(ctx, b.sessions, func(s pkg.Session) error {
		var err error
		id, err = s.Blogs().Insert(ctx, fields)
		return err
	})
	if err != nil {
		return nil, internal(msgSave, err)
	}
	return wrapperspb.String(id), nil
}

// UpdateBlog sets the given fields on the blog named by the "id" field
func (b *BlogServiceServer) UpdateBlog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()[v1.IDField].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	fields := models.Fields(in.AsMap())
	ctx, cancel := opContext(ctx, b.timeout)
	defer cancel()
	var item *models.BlogItem
	err := pkg.WithSession(ctx, b.sessions, func(s pkg.Session) error {
		var err error
		item, err = s.Blogs().Update(ctx, id, fields)
		return err
	})
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, internal(msgUpdate, err)
	}
	return toStruct(*item), nil
}

// DeleteBlog removes a blog. Deleting an absent id succeeds.
func (b *BlogServiceServer) DeleteBlog(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id := in.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ctx, cancel := opContext(ctx, b.timeout)
	defer cancel()
	err := pkg.WithSession(ctx, b.sessions, func(s pkg.Session) error {
		return s.Blogs().Delete(ctx, id)
	})
	if err != nil {
		return nil, internal(msgDelete, err)
	}
	return &emptypb.Empty{}, nil
}

func internal(msg string, err error) error {
	log.Errorf("%s: %v", msg, err)
	return status.Error(codes.Internal, msg)
}

func notFound(id string) error {
	st := status.New(codes.NotFound, msgMissing)
	ds, err := st.WithDetails(&errdetails.ResourceInfo{ResourceType: "blog", ResourceName: id})
	if err != nil {
		return st.Err()
	}
	return ds.Err()
}
