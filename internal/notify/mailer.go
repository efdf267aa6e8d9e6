package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"pulldata/internal/config"
	apperrors "pulldata/internal/errors"
)

// Completion describes a finished survey refresh
type Completion struct {
	Survey   string
	Username string
	At       time.Time
}

// Sender delivers prepared messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends the completion notice, one message per recipient
type Mailer struct {
	sender     Sender
	from       string
	recipients []string
	subject    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewMailer creates a mailer backed by an SMTP client built from cfg
func NewMailer(cfg config.MailConfig, logger *slog.Logger) (*Mailer, error) {
	client, err := newSMTPClient(cfg)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid mail settings", err)
	}
	return NewMailerWithSender(cfg, client, logger), nil
}

// NewMailerWithSender creates a mailer that hands messages to sender
func NewMailerWithSender(cfg config.MailConfig, sender Sender, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	sendRate := cfg.SendRate
	if sendRate <= 0 {
		sendRate = 1
	}
	return &Mailer{
		sender:     sender,
		from:       cfg.From,
		recipients: cfg.Recipients,
		subject:    cfg.Subject,
		limiter:    rate.NewLimiter(rate.Limit(sendRate), 1),
		logger:     logger.With(slog.String("component", "notify")),
	}
}

func newSMTPClient(cfg config.MailConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	switch cfg.TLS {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	return mail.NewClient(cfg.Host, opts...)
}

// Notify sends the notice to every recipient in order and returns the number
// of messages sent. It stops at the first failure.
func (m *Mailer) Notify(ctx context.Context, c Completion) (int, error) {
	body := Body(c)
	sent := 0

	for _, rcpt := range m.recipients {
		if err := m.limiter.Wait(ctx); err != nil {
			return sent, apperrors.NewNotifyError("send cancelled", err)
		}

		msg, err := m.message(rcpt, body)
		if err != nil {
			return sent, apperrors.NewNotifyError("failed to build message", err).WithContext("recipient", rcpt)
		}

		if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
			m.logger.ErrorContext(ctx, "Failed to send notice",
				slog.String("recipient", rcpt),
				slog.String("error", err.Error()))
			return sent, apperrors.NewNotifyError("failed to send notice", err).WithContext("recipient", rcpt)
		}

		sent++
		m.logger.InfoContext(ctx, "Notice sent", slog.String("recipient", rcpt))
	}

	return sent, nil
}

func (m *Mailer) message(rcpt, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(rcpt); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(m.subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Body renders the plain-text notice
func Body(c Completion) string {
	date := c.At.Format(config.NoticeDateLayout)
	return fmt.Sprintf("Hello,\n\n The %s survey successfully updated with the latest Pulldata available as of %s "+
		"and uploaded to the %s's account!\n\nCompleted on %s at %s.\n\nThank you!",
		c.Survey, date, c.Username, date, c.At.Format(config.NoticeTimeLayout))
}
