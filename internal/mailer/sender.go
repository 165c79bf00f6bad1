package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Message is a single outgoing HTML mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	s := &SMTPSender{cfg: cfg}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := smtp.SendMail(addr, s.auth, s.cfg.From, []string{msg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.cfg.From, msg.To, msg.Subject, msg.Body,
	))
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mail transport disabled, message not sent")
	s.Logger.Debug(msg.Body)
	return nil
}
