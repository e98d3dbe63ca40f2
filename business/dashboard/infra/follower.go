package infra

import (
	"context"
	"encoding/json"

	"github.com/fd1az/silver-ai/business/dashboard/app"
	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/internal/logger"
	"github.com/fd1az/silver-ai/internal/wsconn"
)

// Follower mirrors a remote state feed into a local reporter.
type Follower struct {
	client   *wsconn.Client
	reporter app.Reporter
	logger   logger.LoggerInterface
}

// NewFollower creates a follower for a /api/stream URL.
func NewFollower(url string, reporter app.Reporter, log logger.LoggerInterface) (*Follower, error) {
	cfg := wsconn.DefaultConfig(url, "feed")
	client, err := wsconn.New(cfg)
	if err != nil {
		return nil, err
	}

	f := &Follower{client: client, reporter: reporter, logger: log}
	client.OnMessage(f.handle)
	client.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			log.Warn(context.Background(), "feed connection", "state", state, "error", err)
			return
		}
		log.Info(context.Background(), "feed connection", "state", state)
	})
	return f, nil
}

// Run connects, reconnecting on drops, and blocks until ctx ends.
func (f *Follower) Run(ctx context.Context) error {
	if err := f.reporter.Start(ctx); err != nil {
		return err
	}
	defer f.reporter.Stop()

	if err := f.client.ConnectWithRetry(ctx); err != nil {
		f.client.Close()
		return err
	}

	<-ctx.Done()
	return f.client.Close()
}

// State returns the underlying connection state.
func (f *Follower) State() wsconn.State {
	return f.client.State()
}

func (f *Follower) handle(ctx context.Context, msg []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		f.logger.Warn(ctx, "feed frame decode failed", "error", err)
		return
	}
	f.reporter.Publish(frame)
}
