package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers invites over SMTP with plain auth, the same
// host/port/auth shape the hosted deployment uses.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers one invite email.
func (s *SMTPSender) Send(ctx context.Context, invite Invite) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)

	msg := buildInviteMessage(s.From, invite)
	if err := smtp.SendMail(addr, auth, s.From, []string{invite.RecipientEmail}, msg); err != nil {
		return fmt.Errorf("failed to send invite mail: %w", err)
	}
	return nil
}

func buildInviteMessage(from string, invite Invite) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Equinex <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", invite.RecipientEmail)
	fmt.Fprintf(&b, "Subject: You've been added to %q on Equinex\r\n", invite.GroupName)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", invite.RecipientName)
	fmt.Fprintf(&b, "%s has added you to the group %q on Equinex.\r\n\r\n", invite.InviterName, invite.GroupName)
	b.WriteString("You can now view and add expenses for this group, see balances and settle up with other members.\r\n")
	return []byte(b.String())
}
