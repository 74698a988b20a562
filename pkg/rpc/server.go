package rpc

import (
	"net"

	"google.golang.org/grpc"
)

// Server hosts the render service on a gRPC server
type Server struct {
	grpcServer *grpc.Server
	service    *Service
}

// NewServer registers the service on a new gRPC server
func NewServer(service *Service, opts ...grpc.ServerOption) *Server {
	grpcServer := grpc.NewServer(opts...)
	grpcServer.RegisterService(&ServiceDesc, service)
	return &Server{grpcServer: grpcServer, service: service}
}

// Serve accepts connections on lis until Stop or GracefulStop is called
func (s *Server) Serve(lis net.Listener) error {
	s.service.logger.Printf("gRPC render service listening on %s\n", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// GracefulStop waits for in-flight renders to finish, then stops and
// releases the service
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
	s.closeService()
}

// Stop closes all connections immediately, cancelling in-flight renders
func (s *Server) Stop() {
	s.grpcServer.Stop()
	s.closeService()
}

func (s *Server) closeService() {
	if err := s.service.Close(); err != nil {
		s.service.logger.Printf("Failed to close render service: %v\n", err)
	}
}
