package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/tasktrack-dev/tasktrack/internal/config"
)

type SMTP struct {
	cfg      config.SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("empty recipient address")
	}

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.cfg.From, []string{to}, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}
