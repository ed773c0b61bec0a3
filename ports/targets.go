package ports

import "context"

// TargetRequester asks the target controller which ring target comes next.
type TargetRequester interface {
	CurrentTarget(ctx context.Context) (int, error)
}
