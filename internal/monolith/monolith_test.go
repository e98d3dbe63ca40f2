package monolith

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fd1az/silver-ai/internal/config"
	"github.com/fd1az/silver-ai/internal/di"
	"github.com/fd1az/silver-ai/internal/logger"
)

type recordingModule struct {
	name  string
	calls *[]string
	err   error
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m recordingModule) Startup(ctx context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	return m.err
}

func TestApp_ModuleLifecycle(t *testing.T) {
	var calls []string
	fixed := time.Date(2025, 1, 4, 12, 0, 0, 0, time.UTC)

	a := New(&config.Config{}, logger.Nop(), WithClock(func() time.Time { return fixed }))

	mods := []Module{
		recordingModule{name: "market", calls: &calls},
		recordingModule{name: "dashboard", calls: &calls},
	}
	if err := a.RegisterModules(mods...); err != nil {
		t.Fatal(err)
	}
	if err := a.StartModules(context.Background(), mods...); err != nil {
		t.Fatal(err)
	}

	want := []string{"register:market", "register:dashboard", "start:market", "start:dashboard"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	if !a.Services().Has("market") || !a.Services().Has("config") {
		t.Error("expected module and global services registered")
	}
	if got := a.Clock()(); !got.Equal(fixed) {
		t.Errorf("clock = %s", got)
	}
	if a.AssetRegistry().MustGet("XAG") == nil {
		t.Error("expected XAG in registry")
	}
}

func TestApp_StartStopsOnError(t *testing.T) {
	var calls []string
	boom := errors.New("boom")

	a := New(&config.Config{}, logger.Nop())
	err := a.StartModules(context.Background(),
		recordingModule{name: "market", calls: &calls, err: boom},
		recordingModule{name: "dashboard", calls: &calls},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("expected to stop after first failure, calls = %v", calls)
	}
}

func TestApp_CloseReverseOrder(t *testing.T) {
	var order []int
	a := New(&config.Config{}, logger.Nop())
	a.OnClose(func() error { order = append(order, 1); return nil })
	a.OnClose(func() error { order = append(order, 2); return errors.New("second") })

	if err := a.Close(); err == nil || err.Error() != "second" {
		t.Errorf("Close = %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("order = %v", order)
	}
}
