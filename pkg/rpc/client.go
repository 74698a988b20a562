package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/df07/go-path-tracer/pkg/renderer"
)

// Render calls the remote render service and invokes fn for every frame the
// server streams back. Returning an error from fn cancels the call.
func Render(ctx context.Context, conn grpc.ClientConnInterface, req renderer.JobRequest, fn func(Frame) error) error {
	compressor, err := NewZstdCompressor()
	if err != nil {
		return err
	}
	defer compressor.Close()

	msg, err := RequestToStruct(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], renderMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(msg); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		reply := new(structpb.Struct)
		if err := stream.RecvMsg(reply); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		frame, err := frameFromStruct(reply, compressor)
		if err != nil {
			return err
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}
