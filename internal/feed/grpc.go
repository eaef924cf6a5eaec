package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region service-desc
// The state feed is a single server-streaming RPC carrying Struct messages:
//
//	rpc Subscribe(google.protobuf.Struct) returns (stream google.protobuf.Struct)
//
// The request may hold "entity_ids", a list restricting the stream.
const (
	serviceName     = "entityfilter.StateFeed"
	subscribeMethod = "/" + serviceName + "/Subscribe"
	subscribeEntKey = "entity_ids"
)

// StateFeedServer is the server side of the state feed.
type StateFeedServer interface {
	Subscribe(req *structpb.Struct, stream SubscribeStream) error
}

// SubscribeStream is the server stream of one subscription.
type SubscribeStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type subscribeStream struct {
	grpc.ServerStream
}

func (s *subscribeStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(StateFeedServer).Subscribe(req, &subscribeStream{stream})
}

var stateFeedServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StateFeedServer)(nil),
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "entityfilter/feed.proto",
}

// RegisterStateFeedServer registers srv on s.
func RegisterStateFeedServer(s grpc.ServiceRegistrar, srv StateFeedServer) {
	s.RegisterService(&stateFeedServiceDesc, srv)
}

// #endregion service-desc

// #region publisher
// Publisher is a StateFeedServer that fans published batches out to every
// open subscription. Slow subscribers drop nothing: Publish blocks until each
// subscriber accepted the batch or went away.
type Publisher struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// subscription is one open Subscribe call. done is closed when it returns.
type subscription struct {
	ch   chan state.Batch
	done chan struct{}
}

// NewPublisher creates a publisher. A nil logger logs nothing.
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger, subs: map[*subscription]struct{}{}}
}

// Subscribers returns the number of open subscriptions.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish delivers b to every subscriber, or stops early when ctx is done.
func (p *Publisher) Publish(ctx context.Context, b state.Batch) error {
	p.mu.Lock()
	targets := make([]*subscription, 0, len(p.subs))
	for sub := range p.subs {
		targets = append(targets, sub)
	}
	p.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- b:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe streams published batches until the client goes away.
func (p *Publisher) Subscribe(req *structpb.Struct, stream SubscribeStream) error {
	only := map[string]bool{}
	if v, ok := req.GetFields()[subscribeEntKey]; ok {
		for _, id := range v.GetListValue().GetValues() {
			only[id.GetStringValue()] = true
		}
	}

	sub := &subscription{ch: make(chan state.Batch), done: make(chan struct{})}
	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()
	p.logger.Info("feed subscriber connected", zap.Int("entities", len(only)))

	defer func() {
		p.mu.Lock()
		delete(p.subs, sub)
		p.mu.Unlock()
		close(sub.done)
		p.logger.Info("feed subscriber disconnected")
	}()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-sub.ch:
			if len(only) > 0 {
				b = restrict(b, only)
				if len(b.Changes) == 0 {
					continue
				}
			}
			msg, err := BatchToStruct(b)
			if err != nil {
				return status.Errorf(codes.Internal, "encode batch: %v", err)
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func restrict(b state.Batch, only map[string]bool) state.Batch {
	out := state.Batch{ID: b.ID, At: b.At}
	for _, ch := range b.Changes {
		if only[ch.EntityID] {
			out.Changes = append(out.Changes, ch)
		}
	}
	return out
}

// #endregion publisher

// #region grpc-client
// GRPCClient consumes a state feed over gRPC.
type GRPCClient struct {
	conn      *grpc.ClientConn
	logger    *zap.Logger
	entityIDs []string
}

// NewGRPCClient creates a client for addr. Extra dial options are appended
// after insecure transport credentials. entityIDs, when non-empty, restrict
// the subscription.
func NewGRPCClient(addr string, logger *zap.Logger, entityIDs []string, opts ...grpc.DialOption) (*GRPCClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn, logger: logger, entityIDs: entityIDs}, nil
}

// Close shuts down the gRPC connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// Run subscribes and calls handle for every received batch until ctx is done
// or the server ends the stream. Undecodable messages are logged and skipped.
func (c *GRPCClient) Run(ctx context.Context, handle Handler) error {
	ids := make([]any, len(c.entityIDs))
	for i, id := range c.entityIDs {
		ids[i] = id
	}
	req, err := structpb.NewStruct(map[string]any{subscribeEntKey: ids})
	if err != nil {
		return fmt.Errorf("encode subscribe request: %w", err)
	}

	stream, err := c.conn.NewStream(ctx, &stateFeedServiceDesc.Streams[0], subscribeMethod)
	if err != nil {
		return fmt.Errorf("subscribe rpc: %w", err)
	}
	if err := stream.SendMsg(req); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}
	c.logger.Info("grpc feed connected", zap.String("target", c.conn.Target()))

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				c.logger.Info("grpc feed disconnected")
				return nil
			}
			return fmt.Errorf("receive batch: %w", err)
		}
		b, err := StructToBatch(msg)
		if err != nil {
			c.logger.Warn("grpc feed decode failed", zap.Error(err))
			continue
		}
		handle(b)
	}
}

// #endregion grpc-client
