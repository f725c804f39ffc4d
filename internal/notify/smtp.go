package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"

	"smarttasker/internal/model"
)

// SMTPGateway is the email fallback: reminders arrive as plain-text mail
// instead of push messages. Subscription records are irrelevant here;
// "subscribed" means the gateway is fully configured.
type SMTPGateway struct {
	logger   *slog.Logger
	host     string
	port     int
	from     string
	to       string
	user     string
	password string
}

// NewSMTP creates an SMTP gateway. The password comes from the keyring.
func NewSMTP(logger *slog.Logger, host string, port int, from, to, user, password string) *SMTPGateway {
	return &SMTPGateway{
		logger:   logger,
		host:     host,
		port:     port,
		from:     from,
		to:       to,
		user:     user,
		password: password,
	}
}

// IsSubscribed reports whether the SMTP settings are complete.
func (g *SMTPGateway) IsSubscribed(_ context.Context) bool {
	return g.host != "" && g.from != "" && g.to != ""
}

// Deliver composes a MIME message from the payload and sends it.
// All SMTP failures are transient from the caller's point of view;
// there is no expired-subscription condition for email.
func (g *SMTPGateway) Deliver(_ context.Context, _ *model.PushSubscriptionRecord, payload Payload) error {
	msg, err := g.compose(payload)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", g.host, g.port)
	var auth smtp.Auth
	if g.user != "" {
		auth = smtp.PlainAuth("", g.user, g.password, g.host)
	}

	if err := smtp.SendMail(addr, auth, g.from, []string{g.to}, msg); err != nil {
		return fmt.Errorf("sending reminder mail: %w", err)
	}

	g.logger.Info("reminder mail sent", "to", g.to, "subject", payload.Title)
	return nil
}

// compose builds the plain-text MIME message for a reminder.
func (g *SMTPGateway) compose(payload Payload) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: g.from}})
	h.SetAddressList("To", []*mail.Address{{Address: g.to}})
	h.SetSubject(payload.Title)

	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("composing reminder mail: %w", err)
	}
	if _, err := io.WriteString(w, payload.Body); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing reminder mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing reminder mail: %w", err)
	}

	return buf.Bytes(), nil
}
