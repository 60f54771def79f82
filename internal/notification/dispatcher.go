// Package notification delivers fire-and-forget messages produced by the
// admission paths. The queue is bounded and drop-on-full: producers never
// block and never learn whether delivery happened.
package notification

import (
	"context"
	"log/slog"

	"github.com/example/community-hub/internal/application"
)

// Sender delivers a single notification. Real deployments plug in mail or
// push gateways; the default sender just logs the delivery.
type Sender interface {
	Send(ctx context.Context, message application.Notification) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, message application.Notification) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, message application.Notification) error {
	return f(ctx, message)
}

// LogSender records each delivery in the service log.
func LogSender(logger *slog.Logger) Sender {
	return SenderFunc(func(ctx context.Context, message application.Notification) error {
		logger.InfoContext(ctx, "notification delivered",
			"kind", message.Kind,
			"member_id", message.MemberID,
			"event_id", message.EventID,
			"registration_id", message.RegistrationID,
		)
		return nil
	})
}

// Dispatcher buffers notifications for a background worker.
type Dispatcher struct {
	queue  chan application.Notification
	sender Sender
	logger *slog.Logger
	onDrop func()
}

// NewDispatcher constructs a dispatcher with the given buffer size.
// onDrop, when set, is invoked once per message discarded because the
// buffer was full.
func NewDispatcher(buffer int, sender Sender, logger *slog.Logger, onDrop func()) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sender == nil {
		sender = LogSender(logger)
	}
	return &Dispatcher{
		queue:  make(chan application.Notification, buffer),
		sender: sender,
		logger: logger,
		onDrop: onDrop,
	}
}

// Notify implements application.Notifier. The message is queued if there is
// room and discarded otherwise.
func (d *Dispatcher) Notify(ctx context.Context, message application.Notification) {
	select {
	case d.queue <- message:
	default:
		if d.onDrop != nil {
			d.onDrop()
		}
		d.logger.WarnContext(ctx, "notification dropped, queue full",
			"kind", message.Kind,
			"registration_id", message.RegistrationID,
		)
	}
}

// Run consumes the queue until the context is cancelled. Messages already
// buffered at cancellation are drained before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case message := <-d.queue:
					d.deliver(context.WithoutCancel(ctx), message)
				default:
					return ctx.Err()
				}
			}
		case message := <-d.queue:
			d.deliver(ctx, message)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, message application.Notification) {
	if err := d.sender.Send(ctx, message); err != nil {
		d.logger.ErrorContext(ctx, "notification delivery failed",
			"kind", message.Kind,
			"registration_id", message.RegistrationID,
			"error", err,
		)
	}
}
