// Package infra contains infrastructure adapters for the dashboard context.
package infra

import (
	"context"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/pkg/ui"
)

// TUIReporter implements Reporter for the Bubble Tea TUI.
type TUIReporter struct {
	send func(msg any)
}

// NewTUIReporter creates a TUIReporter that forwards to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: func(msg any) { ui.Send(msg) }}
}

// Start is a no-op; the program is run by main.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Publish sends the frame to the Bubble Tea model.
func (r *TUIReporter) Publish(frame domain.Frame) {
	r.send(ui.FrameMsg{Frame: frame})
}

// Stop is a no-op; quitting the program is owned by main.
func (r *TUIReporter) Stop() error {
	return nil
}
