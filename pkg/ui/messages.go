package ui

import "github.com/fd1az/silver-ai/business/dashboard/domain"

// Message types for TUI updates

// FrameMsg carries a newly published dashboard frame.
type FrameMsg struct {
	Frame domain.Frame
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// RefreshRejectedMsg is sent when a refresh request found a cycle running.
type RefreshRejectedMsg struct{}
