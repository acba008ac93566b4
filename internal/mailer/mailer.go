// Package mailer sends plain SMTP mail. Any SMTP relay works; Mailtrap
// (smtp.mailtrap.io:2525) is the usual choice in development.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"sellervault-backend-go/internal/models"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// Mailer sends mail through one SMTP relay.
type Mailer struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New validates cfg and creates a Mailer.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("SMTP host and port must be provided")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("SMTP username and password must be provided")
	}
	if cfg.Sender == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Send delivers one message. HTML bodies are detected by a leading tag.
func (m *Mailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return errors.New("recipient email address cannot be empty")
	}
	if subject == "" {
		return errors.New("email subject cannot be empty")
	}

	msg := buildMessage(recipient, m.cfg.Sender, subject, body)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.sendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.Sender, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(recipient, sender, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, sender, subject, contentType, body))
}

// SellerApprovedMessage renders the notification for a promoted member.
func SellerApprovedMessage(event models.SellerApprovedEvent) (subject, body string) {
	name := event.FullName
	if name == "" {
		name = "there"
	}
	subject = "You are now an approved seller"
	body = fmt.Sprintf("<html><body><p>Hi %s,</p>"+
		"<p>Your payment information has been verified and your seller vault is set up. "+
		"You can now list items for sale.</p>"+
		"<p>Approved on %s.</p></body></html>",
		name, event.ApprovedAt.UTC().Format("January 2, 2006"))
	return subject, body
}
