package notification

import (
	"context"
	"errors"
	"mime"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/condo-notify/internal/config"
	"github.com/stanstork/condo-notify/internal/models"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestEmailNotifier(t *testing.T, cfg config.EmailConfig) (*EmailNotifier, *[]capturedMail) {
	t.Helper()
	n, err := NewEmailNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	sent := &[]capturedMail{}
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	}
	return n, sent
}

func decodedSubject(t *testing.T, raw string) string {
	t.Helper()
	msg, err := netmail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	return subject
}

func TestNewEmailNotifierRequiresHostAndFrom(t *testing.T) {
	_, err := NewEmailNotifier(config.EmailConfig{From: "a@b.c"}, zerolog.Nop())
	assert.Error(t, err)
	_, err = NewEmailNotifier(config.EmailConfig{SMTPHost: "smtp.local"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewEmailNotifierRejectsMalformedRecipient(t *testing.T) {
	_, err := NewEmailNotifier(config.EmailConfig{
		SMTPHost:        "smtp.local",
		From:            "Portaria <portaria@condominio.local>",
		AlertRecipients: []string{"sindico@condominio.local", "not an address"},
	}, zerolog.Nop())
	assert.ErrorContains(t, err, "not an address")
}

func TestEmailNotifierSendsTransitionSummary(t *testing.T) {
	n, sent := newTestEmailNotifier(t, config.EmailConfig{
		SMTPHost:        "smtp.local",
		From:            "portaria@condominio.local",
		AlertRecipients: []string{" sindico@condominio.local ", ""},
	})

	err := n.Notify(context.Background(), TransitionEvent{
		Notification: models.Notification{
			ID:      7,
			Title:   "Vazamento",
			Message: "Água no corredor",
			Type:    models.TypeRepairRequest,
			Origin:  &models.Resident{ID: 3, Name: "Ana", Block: "B", Apartment: "204"},
		},
		From:  models.StatusApproved,
		To:    models.StatusInProgress,
		Actor: models.Actor{UserID: 9, Name: "Zelador"},
		At:    time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.local:587", mail.addr)
	assert.Nil(t, mail.auth)
	assert.Equal(t, []string{"sindico@condominio.local"}, mail.to)
	assert.Equal(t, "portaria@condominio.local", mail.from)
	assert.Equal(t, "[Condomínio] Atendimento iniciado: Vazamento", decodedSubject(t, mail.msg))
	assert.Contains(t, mail.msg, "Status: Aprovada -> Em andamento")
	assert.Contains(t, mail.msg, "Responsável: Zelador")
	assert.Contains(t, mail.msg, "Apartamento: B-204")
}

func TestEmailNotifierWithoutRecipientsIsNoop(t *testing.T) {
	n, sent := newTestEmailNotifier(t, config.EmailConfig{SMTPHost: "smtp.local", From: "a@b.c"})
	require.NoError(t, n.Notify(context.Background(), TransitionEvent{To: models.StatusCompleted}))
	assert.Empty(t, *sent)
}

func TestEmailNotifierPropagatesSendError(t *testing.T) {
	n, _ := newTestEmailNotifier(t, config.EmailConfig{SMTPHost: "smtp.local", From: "a@b.c", AlertRecipients: []string{"x@y.z"}, Username: "u"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	assert.Error(t, n.Notify(context.Background(), TransitionEvent{To: models.StatusRejected}))
}

func TestEmailNotifierKeepsTitleInsideSubject(t *testing.T) {
	n, sent := newTestEmailNotifier(t, config.EmailConfig{
		SMTPHost:        "smtp.local",
		From:            "portaria@condominio.local",
		AlertRecipients: []string{"sindico@condominio.local"},
	})

	err := n.Notify(context.Background(), TransitionEvent{
		Notification: models.Notification{ID: 9, Title: "Vazamento\r\nBcc: intruso@example.com", Type: models.TypeOther},
		From:         models.StatusSent,
		To:           models.StatusApproved,
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	raw := (*sent)[0].msg
	headers := raw[:strings.Index(raw, "\r\n\r\n")]
	for _, line := range strings.Split(headers, "\r\n") {
		assert.False(t, strings.HasPrefix(strings.ToLower(line), "bcc:"), line)
	}
	msg, err := netmail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, msg.Header.Get("Bcc"))
	assert.Equal(t, "[Condomínio] Notificação aprovada: Vazamento Bcc: intruso@example.com", decodedSubject(t, raw))
}
