package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sushihentaime/quillpost/internal/common"
)

const (
	welcomeTemplate = "welcome_email.html"
	maxRetries      = 5
	baseDelay       = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger MailLogger) (*MailService, error) {
	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      NewSMTPMailer(host, port, username, password, sender, templates),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// SendWelcomeEmail consumes account.created messages and mails every new
// user until Close is called.
func (s *MailService) SendWelcomeEmail() {
	msgs, err := s.mb.Consume(common.AccountCreatedKey, common.AccountExchange, common.AccountCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data common.AccountCreatedMessage
				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				s.sendWithBackoff(data)
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendWelcomeEmail due to context cancellation")
				return
			}
		}
	}()
}

// sendWithBackoff retries with exponential backoff and jitter.
func (s *MailService) sendWithBackoff(data common.AccountCreatedMessage) {
	msg := Message{
		To:       data.Email,
		Template: welcomeTemplate,
		Data:     welcomeData{Name: data.Name, Email: data.Email},
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.Send(msg)
		if err == nil {
			s.logger.Info("welcome email sent", slog.String("email", data.Email))
			return
		}

		delay := common.Backoff(baseDelay, attempt)
		s.logger.Info("delaying welcome email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send welcome email", slog.String("email", data.Email))
}

func (s *MailService) Close() {
	s.cancel()
}
