package email

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DispatchFailure reports that at least one of a message pair was not delivered.
type DispatchFailure struct {
	Message string // Subject of the message that failed first
	Cause   error
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("failed to send %q: %v", e.Message, e.Cause)
}

func (e *DispatchFailure) Unwrap() error {
	return e.Cause
}

// Dispatcher delivers the internal notification and the acknowledgment together.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Verify asks the provider to accept a connection before anything is sent.
func (d *Dispatcher) Verify(ctx context.Context) error {
	return d.sender.Verify(ctx)
}

// Dispatch sends both messages concurrently and waits for both to finish.
// Either failing fails the whole dispatch; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, internal, ack *Message) error {
	var g errgroup.Group
	for _, msg := range []*Message{internal, ack} {
		msg := msg // per-iteration copy; go.mod targets go 1.21 loop semantics
		g.Go(func() error {
			if err := d.sender.Send(ctx, msg); err != nil {
				return &DispatchFailure{Message: msg.Subject, Cause: err}
			}
			return nil
		})
	}
	return g.Wait()
}
