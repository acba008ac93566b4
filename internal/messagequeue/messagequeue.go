package messagequeue

import "context"

// MessageQueue publishes to and consumes from named durable queues.
type MessageQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
	// Consume blocks until ctx is done or the delivery channel closes. A handler
	// error requeues the message once; a second failure drops it.
	Consume(ctx context.Context, queueName string, handler func(body []byte) error) error
	Close() error
}
