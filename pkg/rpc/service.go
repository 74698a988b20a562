package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/renderer"
	"github.com/df07/go-path-tracer/pkg/scene"
)

const (
	ServiceName      = "raytracer.RenderService"
	renderStreamName = "Render"
	renderMethod     = "/" + ServiceName + "/" + renderStreamName
)

// RenderServer is the server API for the render service
type RenderServer interface {
	// Render streams one frame per progressive pass of the requested scene
	Render(req *structpb.Struct, stream grpc.ServerStream) error
}

// ServiceDesc describes the render service to grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RenderServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    renderStreamName,
			Handler:       renderHandler,
			ServerStreams: true,
		},
	},
	Metadata: "raytracer/render.proto",
}

func renderHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RenderServer).Render(req, stream)
}

// Option customises the behaviour of the render service
type Option func(*Service)

// WithSceneDir sets the directory .json scene names are resolved in
func WithSceneDir(dir string) Option {
	return func(s *Service) {
		s.sceneDir = dir
	}
}

// WithLogger overrides the default stdout logger
func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLimits overrides the request limits
func WithLimits(limits renderer.JobLimits) Option {
	return func(s *Service) {
		s.limits = limits
	}
}

// WithCompressor overrides the frame payload compressor
func WithCompressor(compressor Compressor) Option {
	return func(s *Service) {
		if compressor != nil {
			s.compressor = compressor
		}
	}
}

// Service implements RenderServer on top of the progressive raytracer
type Service struct {
	sceneDir   string
	logger     core.Logger
	limits     renderer.JobLimits
	compressor Compressor
}

// NewService creates a render service with optional settings
func NewService(opts ...Option) (*Service, error) {
	service := &Service{
		sceneDir: "scenes",
		logger:   renderer.NewDefaultLogger(),
		limits:   renderer.DefaultJobLimits(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	if service.compressor == nil {
		compressor, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		service.compressor = compressor
	}
	return service, nil
}

// Close releases the frame compressor. Call it once the server has stopped.
func (s *Service) Close() error {
	return s.compressor.Close()
}

// Render validates the request, renders progressively and sends a frame after
// every pass. Cancelling the stream stops the render between samples.
func (s *Service) Render(req *structpb.Struct, stream grpc.ServerStream) error {
	if s == nil {
		return status.Error(codes.FailedPrecondition, "render service unavailable")
	}
	s.logger.Printf("Render request: %s\n", protojson.Format(req))

	jobReq, err := RequestFromStruct(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := jobReq.Validate(s.limits); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	job, err := renderer.NewRenderJob(jobReq, s.sceneDir, s.logger)
	if err != nil {
		if errors.Is(err, scene.ErrUnknownScene) {
			return status.Error(codes.NotFound, err.Error())
		}
		return status.Errorf(codes.InvalidArgument, "load scene: %v", err)
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	passChan, errChan := job.Raytracer.RenderProgressive(ctx)
	for result := range passChan {
		msg, err := passToStruct(result, job.Config.MaxPasses, s.compressor)
		if err != nil {
			return status.Errorf(codes.Internal, "encode pass %d: %v", result.PassNumber, err)
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}

	if err := <-errChan; err != nil {
		return contextStatus(err)
	}
	return nil
}

// contextStatus maps a render error to a gRPC status
func contextStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "render cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "render deadline exceeded")
	default:
		return status.Errorf(codes.Internal, "render failed: %v", err)
	}
}
