package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "laserscan.stream.v1.IncrementService"

	// SubscribeMethod is the full method name of the increment stream.
	SubscribeMethod = "/" + ServiceName + "/Subscribe"
)

// IncrementServer is the server side of the increment service.
type IncrementServer interface {
	Subscribe(req *emptypb.Empty, stream grpc.ServerStream) error
}

var incrementServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IncrementServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "laserscan/stream/v1/increments.proto",
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(IncrementServer).Subscribe(in, stream)
}

// RegisterIncrementServer registers srv on s.
func RegisterIncrementServer(s grpc.ServiceRegistrar, srv IncrementServer) {
	s.RegisterService(&incrementServiceDesc, srv)
}

// Subscribe opens an increment stream on cc and calls fn for every delta
// until the server ends the stream, ctx is cancelled, or fn returns an
// error. A clean end of stream returns nil.
func Subscribe(ctx context.Context, cc grpc.ClientConnInterface, fn func(l5cloud.Delta) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := cc.NewStream(ctx, &incrementServiceDesc.Streams[0], SubscribeMethod)
	if err != nil {
		return fmt.Errorf("open increment stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}

	for {
		msg := new(wrapperspb.BytesValue)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive increment: %w", err)
		}
		d, err := DecodeDelta(msg.GetValue())
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
}
