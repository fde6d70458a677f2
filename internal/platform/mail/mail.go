// Package mail delivers notification email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrNoRecipients is returned when a message has nobody to go to.
var ErrNoRecipients = errors.New("message has no recipients")

// Message is a rendered email with a plain text body and an optional HTML alternative.
type Message struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	HTML       string   `json:"html,omitempty"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds connection details for the relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// deliverFunc hands a built message to the relay.
type deliverFunc func(ctx context.Context, m *gomail.Msg) error

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	cfg     SMTPConfig
	deliver deliverFunc
	now     func() time.Time
	logger  *slog.Logger
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SMTPSender{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "smtp_sender"),
	}
	s.deliver = s.dialAndSend
	return s
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := Build(s.cfg.From, msg, s.now())
	if err != nil {
		return err
	}

	if err := s.deliver(ctx, m); err != nil {
		s.logger.Error("smtp send failed",
			"error", err,
			"host", s.cfg.Host,
			"port", s.cfg.Port,
			"recipient_count", len(msg.Recipients))
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("mail sent", "recipient_count", len(msg.Recipients))
	return nil
}

// newClient builds a relay client. STARTTLS is used when the relay offers it.
func (s *SMTPSender) newClient() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, m *gomail.Msg) error {
	client, err := s.newClient()
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

// Build turns msg into a go-mail message. With an HTML body the result is
// multipart/alternative, text first.
func Build(from string, msg Message, date time.Time) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(date)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}
