package email

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"

	"travelblog/config"
)

type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the SMTP transport when a host is configured and the log
// transport otherwise.
func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.SMTPHost == "" {
		return &LogSender{logger: logger}
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
	}
}

type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
}

func NewSMTPSender(host, port, user, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, msg.From, msg.To, Format(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// Format renders msg as an RFC 5322 message with a UTF-8 plain text body.
func Format(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogSender writes messages to the log instead of delivering them. It is the
// development transport used when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email (not delivered, no SMTP host)",
		slog.String("from", msg.From),
		slog.String("to", strings.Join(msg.To, ",")),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
