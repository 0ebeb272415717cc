package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

// IncrementSource is the queue Publisher drains. Implemented by
// pipeline.Engine.
type IncrementSource interface {
	PollIncrement() (l5cloud.Delta, bool)
}

// Config holds publisher settings.
type Config struct {
	// PollInterval is how often the increment queue is drained.
	PollInterval time.Duration

	// ClientBuffer is the number of encoded deltas buffered per client
	// before that client starts dropping.
	ClientBuffer int

	// MaxClients is the maximum number of concurrent subscribers.
	MaxClients int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 50 * time.Millisecond,
		ClientBuffer: 32,
		MaxClients:   8,
	}
}

// Publisher polls an IncrementSource and broadcasts every delta to the
// connected subscribers. A slow subscriber loses deltas rather than
// stalling the others.
type Publisher struct {
	config Config
	source IncrementSource

	clients   map[string]*clientStream
	clientsMu sync.RWMutex

	published atomic.Uint64
	dropped   atomic.Uint64
	running   atomic.Bool
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type clientStream struct {
	id      string
	deltaCh chan []byte
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	Published uint64 // deltas drained from the source
	Dropped   uint64 // per-client sends skipped because a buffer was full
	Clients   int
	Running   bool
}

// NewPublisher creates a Publisher draining source.
func NewPublisher(source IncrementSource, cfg Config) *Publisher {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = def.ClientBuffer
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	return &Publisher{
		config:  cfg,
		source:  source,
		clients: make(map[string]*clientStream),
		stopCh:  make(chan struct{}),
	}
}

// Run drains the source every PollInterval until ctx is done, then drains
// it once more and ends every subscriber stream.
func (p *Publisher) Run(ctx context.Context) {
	p.running.Store(true)
	defer p.stop()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	diagf("publisher polling every %s", p.config.PollInterval)

	for {
		select {
		case <-ctx.Done():
			p.Drain()
			return
		case <-ticker.C:
			p.Drain()
		}
	}
}

func (p *Publisher) stop() {
	p.stopOnce.Do(func() {
		p.running.Store(false)
		close(p.stopCh)
	})
}

// Drain broadcasts every delta currently queued in the source and returns
// how many were sent.
func (p *Publisher) Drain() int {
	n := 0
	for {
		d, ok := p.source.PollIncrement()
		if !ok {
			return n
		}
		p.broadcast(EncodeDelta(d))
		p.published.Add(1)
		n++
	}
}

func (p *Publisher) broadcast(payload []byte) {
	p.clientsMu.RLock()
	defer p.clientsMu.RUnlock()
	for _, client := range p.clients {
		select {
		case client.deltaCh <- payload:
		default:
			dropped := p.dropped.Add(1)
			opsf("client %s is slow, dropped delta (total dropped: %d)", client.id, dropped)
		}
	}
}

// Subscribe implements IncrementServer. It streams deltas until the client
// goes away or the publisher stops.
func (p *Publisher) Subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	client, err := p.addClient()
	if err != nil {
		return err
	}
	defer p.removeClient(client.id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stopCh:
			return p.flush(stream, client)
		case payload := <-client.deltaCh:
			if err := stream.SendMsg(wrapperspb.Bytes(payload)); err != nil {
				return err
			}
		}
	}
}

// flush sends whatever is still buffered for client.
func (p *Publisher) flush(stream grpc.ServerStream, client *clientStream) error {
	for {
		select {
		case payload := <-client.deltaCh:
			if err := stream.SendMsg(wrapperspb.Bytes(payload)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Publisher) addClient() (*clientStream, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	select {
	case <-p.stopCh:
		return nil, status.Error(codes.Unavailable, "publisher stopped")
	default:
	}
	if len(p.clients) >= p.config.MaxClients {
		return nil, status.Errorf(codes.ResourceExhausted, "too many subscribers (max %d)", p.config.MaxClients)
	}
	client := &clientStream{
		id:      uuid.NewString(),
		deltaCh: make(chan []byte, p.config.ClientBuffer),
	}
	p.clients[client.id] = client
	diagf("client connected: %s (total: %d)", client.id, len(p.clients))
	return client, nil
}

func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if _, ok := p.clients[id]; ok {
		delete(p.clients, id)
		diagf("client disconnected: %s (remaining: %d)", id, len(p.clients))
	}
}

// ClientCount returns the number of connected subscribers.
func (p *Publisher) ClientCount() int {
	p.clientsMu.RLock()
	defer p.clientsMu.RUnlock()
	return len(p.clients)
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Clients:   p.ClientCount(),
		Running:   p.running.Load(),
	}
}

// NewServer returns a gRPC server with the increment service registered.
func NewServer(p *Publisher, opts ...grpc.ServerOption) *grpc.Server {
	// Full-frame deltas can exceed the 4MB default.
	const maxMsgSize = 16 * 1024 * 1024
	opts = append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterIncrementServer(s, p)
	return s
}
