package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/internal/logger"
)

const (
	defaultSubscriberBuffer = 8
	feedWriteTimeout        = 10 * time.Second
)

// FeedConfig configures the state feed server.
type FeedConfig struct {
	Port int
	// AllowOrigins are websocket origin patterns; empty skips the origin check.
	AllowOrigins []string
	// Buffer is the per-subscriber frame queue; full queues drop frames.
	Buffer int
}

type subscriber struct {
	frames chan []byte
}

// Feed implements Reporter by serving frames over HTTP and WebSocket.
type Feed struct {
	cfg    FeedConfig
	logger logger.LoggerInterface
	server *http.Server

	mu     sync.RWMutex
	latest []byte
	subs   map[*subscriber]struct{}
	closed bool

	dropped atomic.Int64
}

// NewFeed creates a feed server. It does not listen until Start.
func NewFeed(cfg FeedConfig, log logger.LoggerInterface) *Feed {
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultSubscriberBuffer
	}
	return &Feed{
		cfg:    cfg,
		logger: log,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Handler returns the feed endpoints.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", f.handleState)
	mux.HandleFunc("GET /api/stream", f.handleStream)
	return otelhttp.NewHandler(mux, "feed")
}

// Start binds the port and serves in the background.
func (f *Feed) Start(ctx context.Context) error {
	f.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", f.cfg.Port),
		Handler:           f.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", f.server.Addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", f.server.Addr, err)
	}

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error(ctx, "feed server stopped", "error", err)
		}
	}()

	f.logger.Info(ctx, "state feed listening", "addr", f.server.Addr)
	return nil
}

// Publish stores the frame and queues it for every subscriber.
// Subscribers whose queue is full miss the frame.
func (f *Feed) Publish(frame domain.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		f.logger.Error(context.Background(), "feed encode failed", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.latest = data
	for sub := range f.subs {
		select {
		case sub.frames <- data:
		default:
			f.dropped.Add(1)
		}
	}
}

// Dropped returns how many frames were not delivered to slow subscribers.
func (f *Feed) Dropped() int64 {
	return f.dropped.Load()
}

// Subscribers returns the number of connected stream clients.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Stop disconnects subscribers and shuts the server down.
func (f *Feed) Stop() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	for sub := range f.subs {
		close(sub.frames)
		delete(f.subs, sub)
	}
	f.mu.Unlock()

	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}

func (f *Feed) handleState(w http.ResponseWriter, _ *http.Request) {
	f.mu.RLock()
	data := f.latest
	f.mu.RUnlock()

	if data == nil {
		http.Error(w, "no frame published yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (f *Feed) handleStream(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: f.cfg.AllowOrigins}
	if len(f.cfg.AllowOrigins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		f.logger.Warn(r.Context(), "feed accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sub, ok := f.subscribe()
	if !ok {
		conn.Close(websocket.StatusGoingAway, "feed closed")
		return
	}
	defer f.unsubscribe(sub)

	// Clients only listen; CloseRead handles their close frames and
	// cancels ctx when they go away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-sub.frames:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// subscribe registers a queue primed with the latest frame.
func (f *Feed) subscribe() (*subscriber, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, false
	}
	sub := &subscriber{frames: make(chan []byte, f.cfg.Buffer)}
	if f.latest != nil {
		sub.frames <- f.latest
	}
	f.subs[sub] = struct{}{}
	return sub, true
}

func (f *Feed) unsubscribe(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.frames)
	}
}
