// Package bus carries serialized containers between the sensor bridge and
// the transmitter.
package bus

import "context"

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, msg []byte) error
	Close() error
}

// Subscriber receives messages from a topic. Receive blocks until a message
// arrives, ctx is done or the subscriber is closed.
type Subscriber interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
