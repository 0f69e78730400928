package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"psup-auth/internal/logger"
)

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// TLS dials with implicit TLS (port 465 style) instead of plain SMTP.
	TLS bool
}

// SMTPMailer sends mail through an SMTP relay, one connection per message.
type SMTPMailer struct {
	cfg     SMTPConfig
	timeout time.Duration
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, timeout: 15 * time.Second}
}

func (s *SMTPMailer) client(ctx context.Context) (*smtp.Client, error) {
	if s.cfg.Host == "" || s.cfg.Port == 0 {
		return nil, errors.New("no SMTP configuration")
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}

	var conn net.Conn
	var err error
	if s.cfg.TLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	if s.cfg.User != "" && s.cfg.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c, nil
}

// Send delivers m. Errors are returned unwrapped from net/smtp with the failing step prefixed.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	to, err := mail.ParseAddress(m.To)
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	c, err := s.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL: %w", err)
	}
	if err := c.Rcpt(to.Address); err != nil {
		return fmt.Errorf("smtp RCPT: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(formatMessage(s.cfg.From, to.String(), m)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return c.Quit()
}

func formatMessage(from, to string, m Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + m.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them. Used when SMTP is disabled.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer returns a mailer that logs every message. The confirmation
// secret is masked at info level; the unmasked body is only written at debug.
func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.log.Info("mail not sent, SMTP disabled",
		zap.String("to", logger.MaskEmail(m.To)),
		zap.String("subject", m.Subject),
		zap.String("body", maskLinkData(m.Body)),
	)
	l.log.Debug("mail body", zap.String("body", m.Body))
	return nil
}

var linkData = regexp.MustCompile(`data=([^&\s]+)`)

// maskLinkData masks the value of every data= query parameter in body.
func maskLinkData(body string) string {
	return linkData.ReplaceAllStringFunc(body, func(match string) string {
		return "data=" + logger.MaskSecret(strings.TrimPrefix(match, "data="))
	})
}
