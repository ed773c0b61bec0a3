package targetctl

import (
	"context"

	"centerout/domain/trial"
	"centerout/internal"
	"centerout/ports"
)

// Stepper advances a target controller.
type Stepper interface {
	Next(ctx context.Context) (int, error)
}

// Advancer asks the target controller for a new hint whenever an inward
// trial succeeds, so the next outward trial gets a fresh target.
type Advancer struct {
	stepper Stepper
	reqs    chan struct{}
	logger  *internal.Logger
}

func NewAdvancer(stepper Stepper, logger *internal.Logger) *Advancer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Advancer{stepper: stepper, reqs: make(chan struct{}, 4), logger: logger.With("targets")}
}

// Publish queues an advance on inward successes. It never blocks.
func (a *Advancer) Publish(event ports.TaskEvent) {
	if event.Type != ports.EventOutcome {
		return
	}
	if ok, _ := event.Data["success"].(bool); !ok {
		return
	}
	if done, _ := event.Data["done"].(bool); done {
		return
	}
	if dir, _ := event.Data["direction"].(string); dir != string(trial.Inward) {
		return
	}
	select {
	case a.reqs <- struct{}{}:
	default:
		a.logger.Warn("advance queue full, dropping request")
	}
}

// Run performs queued advances until ctx is done.
func (a *Advancer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.reqs:
			next, err := a.stepper.Next(ctx)
			if err != nil {
				a.logger.Warn("failed to advance target: %v", err)
				continue
			}
			a.logger.Debug("next outward target %d", next)
		}
	}
}

var _ ports.EventPublisher = (*Advancer)(nil)
