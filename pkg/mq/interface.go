package mq

import "context"

// Publisher defines the interface for publishing messages to a queue.
// This interface enables easier testing through fakes and dependency injection.
type Publisher interface {
	// Push will push data onto the queue and wait for a broker confirmation.
	// This will block until the server sends a confirmation.
	// The context is used for cancellation and timeout.
	Push(ctx context.Context, data []byte) error

	// Close will cleanly shut down the channel and connection.
	Close() error
}

// Ensure Client implements Publisher.
var _ Publisher = (*Client)(nil)
