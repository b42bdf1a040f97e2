package mailservice

import (
	"fmt"
	"time"

	"github.com/go-mail/mail/v2"
)

const dialTimeout = 5 * time.Second

// NewSMTPMailer sends through the given SMTP server, rendering with renderer.
func NewSMTPMailer(host string, port int, username, password, sender string, renderer Renderer) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = dialTimeout

	return &SMTPMailer{
		dialer:   dialer,
		sender:   sender,
		renderer: renderer,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	rendered, err := m.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	out := mail.NewMessage()
	out.SetHeader("From", m.sender)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", rendered.Subject)
	out.SetBody("text/plain", rendered.Plain)
	out.AddAlternative("text/html", rendered.HTML)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.dialer.DialAndSend(out); err != nil {
		return fmt.Errorf("could not send %s to %s: %w", msg.Template, msg.To, err)
	}

	return nil
}
