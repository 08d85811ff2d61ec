package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers one message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SendGridMailer delivers through the SendGrid v3 mail API.
type SendGridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGridMailer(apiKey, fromName, fromAddress, appName string) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: fmt.Sprintf("[%s] ", appName),
	}
}

func (m *SendGridMailer) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	if msg.Text != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}

func (m *SendGridMailer) Send(ctx context.Context, msg *Message) error {
	if msg.ToEmail == "" {
		return ErrNoRecipient
	}
	res, err := m.client.SendWithContext(ctx, m.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
// Used when no mail provider is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "log_mailer").Logger()}
}

func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	if msg.ToEmail == "" {
		return ErrNoRecipient
	}
	m.log.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Msg(msg.Text)
	return nil
}
