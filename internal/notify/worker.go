package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sendTimeout bounds one delivery attempt.
const sendTimeout = 15 * time.Second

// Dispatcher queues invites and drains them on a background worker.
// Enqueue never blocks the caller: when the queue is full the invite is
// dropped with a warning, because membership changes must not stall on
// notification delivery.
type Dispatcher struct {
	sender Sender
	queue  chan Invite

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue size and
// starts its worker.
func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan Invite, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue hands one invite to the worker without blocking.
func (d *Dispatcher) Enqueue(invite Invite) {
	select {
	case d.queue <- invite:
	default:
		slog.Warn("notification queue full, dropping invite",
			"recipient", invite.RecipientEmail,
			"group", invite.GroupName,
		)
	}
}

// Close stops accepting invites, drains the queue and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for invite := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, invite); err != nil {
			// Delivery is best-effort; the membership change already
			// committed.
			slog.Error("failed to send group invite",
				"recipient", invite.RecipientEmail,
				"group", invite.GroupName,
				"error", err,
			)
		}
		cancel()
	}
}
