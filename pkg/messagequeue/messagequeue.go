package messagequeue

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Consume when the underlying delivery channel closes.
	ErrClosed = errors.New("message queue closed")
	// ErrRejected marks a handler error as permanent. The message is dropped.
	ErrRejected = errors.New("message rejected")
)

// Reject wraps err so that the consumer drops the message instead of
// redelivering it.
func Reject(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}

// Handler processes one message. A nil error acknowledges it, an error
// wrapping ErrRejected drops it, and any other error requeues it.
type Handler func(ctx context.Context, body []byte) error

// MessageQueue defines the interface for message queue services.
type MessageQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
	// Consume blocks, invoking handler for each message, until ctx is done
	// or the queue closes.
	Consume(ctx context.Context, queueName string, handler Handler) error
	Close() error
}
