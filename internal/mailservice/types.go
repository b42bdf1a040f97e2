package mailservice

import (
	"context"
	"sync"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/quillpost/internal/common"
)

type MailService struct {
	mb     common.MessageConsumer
	m      Mailer
	logger MailLogger
	ctx    context.Context
	cancel context.CancelFunc
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

// Message names the template to render for one recipient.
type Message struct {
	To       string
	Template string
	Data     any
}

type Mailer interface {
	Send(msg Message) error
}

type Renderer interface {
	Render(name string, data any) (*Rendered, error)
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer serializes sends over one dialer.
type SMTPMailer struct {
	mu       sync.Mutex
	dialer   Dialer
	renderer Renderer
	sender   string
}

// welcomeData is what welcome_email.html renders.
type welcomeData struct {
	Name  string
	Email string
}
