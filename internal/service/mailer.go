package service

import (
	"fmt"
	"net/smtp"
	"os"
)

// Mailer sends account emails over SMTP.
type Mailer struct {
	host     string
	port     string
	username string
	password string
}

// NewMailerFromEnv builds a Mailer from EMAIL_* variables, or returns nil
// when they are not configured so the server runs without email.
func NewMailerFromEnv() *Mailer {
	host := os.Getenv("EMAIL_HOST")
	username := os.Getenv("EMAIL_USER")
	password := os.Getenv("EMAIL_PASSWORD")
	if host == "" || username == "" || password == "" {
		return nil
	}

	port := os.Getenv("EMAIL_PORT")
	if port == "" {
		port = "587"
	}

	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// SendWelcome sends the post-registration greeting. Best effort; callers log
// failures and move on.
func (m *Mailer) SendWelcome(name, email string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Welcome to SoniQ\r\n\r\n"+
		"Hi %s,\r\n\r\nYour SoniQ account is ready. Describe a mood and we'll build the playlist.\r\n",
		m.username, email, name)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.username, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	return nil
}
