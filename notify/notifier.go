// Package notify delivers customer emails. Delivery is best effort: Send reports success
// and never returns an error, so callers can log and move on.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/yeremiapane/restaurant-waitlist/utils"
)

type Notifier interface {
	Send(ctx context.Context, to, subject, html string) bool
}

// LogNotifier is used when no SMTP server is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, to, subject, _ string) bool {
	utils.InfoLogger.WithField("to", to).Infof("Email not sent (no smtp configured): %s", subject)
	return true
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, html string) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{to}, buildMessage(n.cfg.From, to, subject, html)); err != nil {
		utils.ErrorLogger.WithField("to", to).Errorf("Failed to send email: %v", err)
		return false
	}

	utils.InfoLogger.WithField("to", to).Info("Email sent")
	return true
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
