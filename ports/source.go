package ports

import (
	"context"

	"centerout/domain/core"
)

// RawSample is one unconditioned position reading in device units.
type RawSample struct {
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	TimestampMs core.Millis `json:"timestamp_ms"`
}

// CommandKind names an externally injected control message.
type CommandKind string

const (
	CommandPhase  CommandKind = "state" // force a phase by name
	CommandTarget CommandKind = "tgt"   // target hint for the next outward trial
	CommandStart  CommandKind = "start"
	CommandStop   CommandKind = "stop"
	CommandPause  CommandKind = "pause"
	CommandResume CommandKind = "resume"
	CommandReset  CommandKind = "reset"
)

// Command is a control message. Only the field matching Kind is read.
type Command struct {
	Kind   CommandKind `json:"type"`
	Phase  string      `json:"state,omitempty"`
	Target int         `json:"tgt,omitempty"`
}

// SampleSink consumes what a SampleSource delivers.
type SampleSink interface {
	ProcessSample(ctx context.Context, s RawSample) error
	HandleCommand(ctx context.Context, c Command) error
}

// SampleSource pushes samples and commands into a sink until ctx ends or the
// transport fails.
type SampleSource interface {
	Run(ctx context.Context, sink SampleSink) error
}
