package notification

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/config"
	"github.com/stanstork/condo-notify/internal/lifecycle"
)

const defaultSMTPPort = 587

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails a plain-text summary of each transition to the building
// office mailboxes listed in email.alert_recipients.
type EmailNotifier struct {
	addr   string
	auth   smtp.Auth
	from   *mail.Address
	to     []string
	send   sendMailFunc
	logger zerolog.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	if host == "" {
		return nil, errors.New("email.smtp_host is required for email notifier")
	}
	from, err := mail.ParseAddress(strings.TrimSpace(cfg.From))
	if err != nil {
		return nil, errors.Wrap(err, "invalid email.from")
	}

	var to []string
	for _, raw := range sanitizeRecipients(cfg.AlertRecipients) {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid alert recipient %q", raw)
		}
		to = append(to, addr.Address)
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}
	n := &EmailNotifier{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		from:   from,
		to:     to,
		send:   smtp.SendMail,
		logger: logger.With().Str("notifier", "email").Logger(),
	}
	if user := strings.TrimSpace(cfg.Username); user != "" {
		n.auth = smtp.PlainAuth("", user, cfg.Password, host)
	}
	return n, nil
}

func (n *EmailNotifier) Notify(_ context.Context, evt TransitionEvent) error {
	if len(n.to) == 0 {
		return nil
	}
	if err := n.send(n.addr, n.auth, n.from.Address, n.to, n.compose(evt)); err != nil {
		return errors.Wrapf(err, "sending transition mail for notification %d", evt.Notification.ID)
	}
	n.logger.Info().
		Int("notification_id", evt.Notification.ID).
		Str("to", evt.To.Slug()).
		Strs("recipients", n.to).
		Msg("email notification sent")
	return nil
}

func (n *EmailNotifier) compose(evt TransitionEvent) []byte {
	notif := evt.Notification
	title := headerSafe(notif.Title)
	if title == "" {
		title = fmt.Sprintf("Notificação #%d", notif.ID)
	}
	subject := fmt.Sprintf("[Condomínio] %s: %s", lifecycle.ActionLabel(evt.To), title)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from.String())
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")

	if msg := strings.TrimSpace(notif.Message); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Tipo: %s\n", notif.Type.Label())
	fmt.Fprintf(&b, "Status: %s -> %s\n", evt.From.Label(), evt.To.Label())
	if evt.Actor.Name != "" {
		fmt.Fprintf(&b, "Responsável: %s\n", evt.Actor.Name)
	}
	if notif.Origin != nil && notif.Origin.Block != "" {
		fmt.Fprintf(&b, "Apartamento: %s-%s\n", notif.Origin.Block, notif.Origin.Apartment)
	}
	fmt.Fprintf(&b, "Data: %s\n", evt.At.Format("02/01/2006 15:04 MST"))
	return []byte(b.String())
}

// headerSafe collapses line breaks so user text cannot start a new header.
func headerSafe(v string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(v), " "))
}

func (n *EmailNotifier) String() string {
	return "EmailNotifier"
}
