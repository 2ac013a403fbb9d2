// Package transport adapts a multiplexed gRPC connection into the channel
// capability the protocol engine consumes: unary invocation plus
// server-streaming row delivery with explicit cancellation. Pooling and load
// balancing stay inside the *grpc.ClientConn; this package never owns them.
package transport

import (
	"context"
	"errors"
	"path"

	"google.golang.org/grpc"

	"github.com/mgarolera/cloud-bigtable-client/bigtable"
)

// Remote method names, in full gRPC form.
const (
	MethodReadRows           = "/bigtable.v1.BigtableService/ReadRows"
	MethodSampleRowKeys      = "/bigtable.v1.BigtableService/SampleRowKeys"
	MethodMutateRow          = "/bigtable.v1.BigtableService/MutateRow"
	MethodMutateRows         = "/bigtable.v1.BigtableService/MutateRows"
	MethodCheckAndMutateRow  = "/bigtable.v1.BigtableService/CheckAndMutateRow"
	MethodReadModifyWriteRow = "/bigtable.v1.BigtableService/ReadModifyWriteRow"
)

// RowStream is one open server-streaming call delivering row fragments.
// Recv blocks for the next fragment and returns io.EOF on clean completion.
// Cancel aborts the call and releases server-side resources; it is safe to
// call more than once and concurrently with Recv.
type RowStream interface {
	Recv() (*bigtable.ReadRowsResponse, error)
	Cancel()
}

// GRPCChannel is the channel capability backed by a *grpc.ClientConn. The
// connection must be safe for concurrent use by many in-flight calls, which
// grpc-go guarantees.
type GRPCChannel struct {
	conn     *grpc.ClientConn
	callOpts []grpc.CallOption
}

type Config struct {
	// Conn is the dialed connection. The caller owns its lifecycle.
	Conn *grpc.ClientConn
	// CallOptions are appended to every call. The JSON codec is always
	// selected; see codec.go.
	CallOptions []grpc.CallOption
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Conn == nil {
		errGrp = append(errGrp, errors.New("conn is required"))
	}
	return errors.Join(errGrp...)
}

// New returns a channel over cfg.Conn.
func New(cfg *Config) (*GRPCChannel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, cfg.CallOptions...)
	return &GRPCChannel{
		conn:     cfg.Conn,
		callOpts: opts,
	}, nil
}

// Invoke performs one unary exchange. Cancellation and deadlines ride ctx.
func (c *GRPCChannel) Invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, method, req, resp, c.callOpts...)
}

// OpenStream starts a server-streaming call for method, sends the single
// request, and half-closes. The returned stream owns a derived context so
// Cancel can abort the call independently of the parent ctx.
func (c *GRPCChannel) OpenStream(ctx context.Context, method string, req any) (RowStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	desc := &grpc.StreamDesc{
		StreamName:    path.Base(method),
		ServerStreams: true,
	}
	stream, err := c.conn.NewStream(ctx, desc, method, c.callOpts...)
	if err != nil {
		cancel()
		return nil, err
	}
	if err = stream.SendMsg(req); err != nil {
		cancel()
		return nil, err
	}
	if err = stream.CloseSend(); err != nil {
		cancel()
		return nil, err
	}
	return &grpcRowStream{stream: stream, cancel: cancel}, nil
}

type grpcRowStream struct {
	stream grpc.ClientStream
	cancel context.CancelFunc
}

func (s *grpcRowStream) Recv() (*bigtable.ReadRowsResponse, error) {
	var resp bigtable.ReadRowsResponse
	if err := s.stream.RecvMsg(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *grpcRowStream) Cancel() {
	s.cancel()
}
