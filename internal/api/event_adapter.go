package api

import "centerout/ports"

// Publishers broadcasts every task event to each non-nil publisher in order.
type Publishers []ports.EventPublisher

// Publish implements ports.EventPublisher
func (p Publishers) Publish(event ports.TaskEvent) {
	for _, pub := range p {
		if pub != nil {
			pub.Publish(event)
		}
	}
}

var _ ports.EventPublisher = Publishers(nil)
