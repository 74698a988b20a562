package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"

	"github.com/df07/go-path-tracer/pkg/rpc"
	"github.com/df07/go-path-tracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	grpcPort := flag.Int("grpc-port", 0, "Port for the gRPC render service (0 = disabled)")
	sceneDir := flag.String("scene-dir", "scenes", "Directory scene files are listed from")
	flag.Parse()

	if *grpcPort != 0 {
		grpcServer, err := startGRPC(*grpcPort, *sceneDir)
		if err != nil {
			log.Printf("Error starting gRPC service: %v", err)
			os.Exit(1)
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		go func() {
			<-interrupt
			log.Printf("Stopping gRPC service, waiting for active renders...")
			grpcServer.GracefulStop()
			os.Exit(0)
		}()
	}

	webServer := server.NewServer(*port, *sceneDir)

	log.Printf("Path Tracer Web Server")
	log.Printf("Connect to ws://localhost:%d/ws/render to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}

func startGRPC(port int, sceneDir string) (*rpc.Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	service, err := rpc.NewService(rpc.WithSceneDir(sceneDir))
	if err != nil {
		lis.Close()
		return nil, err
	}

	grpcServer := rpc.NewServer(service)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC service stopped: %v", err)
		}
	}()
	return grpcServer, nil
}
