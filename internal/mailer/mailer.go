/**
 * @description
 * SMTP delivery of donation emails. The worker feeds completed donations in
 * here: a thank-you receipt to the donor and a notification to the campaign
 * owner. Rendering and transport are kept separate so tests can assert on
 * message content without a mail server.
 */

package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers a single rendered message. The production implementation
// speaks SMTP; tests substitute a recorder.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPConfig carries the transport settings for outbound mail.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through a plain-auth SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers one message. Auth is skipped when no username is configured,
// which covers local relay setups.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
