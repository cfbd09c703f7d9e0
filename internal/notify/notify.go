// Package notify delivers fire-and-forget notifications. The services
// enqueue messages after a successful commit and never wait for, or fail
// on, delivery.
package notify

import (
	"context"
	"log/slog"
)

// Invite is a group-invite notification for one newly added member.
type Invite struct {
	RecipientEmail string
	RecipientName  string
	GroupName      string
	InviterName    string
}

// Sender delivers a single invite. Implementations must be safe for
// concurrent use by the dispatcher worker.
type Sender interface {
	Send(ctx context.Context, invite Invite) error
}

// LogSender logs invites instead of delivering them. Used when SMTP is
// not configured so development setups degrade gracefully.
type LogSender struct{}

// Send logs the invite.
func (LogSender) Send(ctx context.Context, invite Invite) error {
	slog.Info("group invite (mail not configured, logging only)",
		"recipient", invite.RecipientEmail,
		"group", invite.GroupName,
		"inviter", invite.InviterName,
	)
	return nil
}
