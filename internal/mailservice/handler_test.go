package mailservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sushihentaime/quillpost/internal/common"
)

func newTestMailService(mc *MockMessageConsumer, m *MockMailer, l *MockLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())

	return &MailService{
		mb:     mc,
		m:      m,
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

func TestSendWelcomeEmail(t *testing.T) {
	mockMC := &MockMessageConsumer{Bodies: []string{`{"user_id": "u1", "email": "test@example.com", "name": "Tess"}`}}
	mockMC.On("Consume", common.AccountCreatedKey, common.AccountExchange, common.AccountCreatedQueue).Return()

	mockMailer := new(MockMailer)
	mockMailer.On("Send", Message{To: "test@example.com", Template: welcomeTemplate, Data: welcomeData{Name: "Tess", Email: "test@example.com"}}).Return(nil)

	sent := make(chan struct{})
	mockLogger := new(MockLogger)
	mockLogger.On("Info", "welcome email sent").Return().Run(func(mock.Arguments) { close(sent) })

	s := newTestMailService(mockMC, mockMailer, mockLogger)
	t.Cleanup(s.Close)

	s.SendWelcomeEmail()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("welcome email was not sent")
	}

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
	mockLogger.AssertExpectations(t)
}

func TestSendWelcomeEmailRetries(t *testing.T) {
	mockMailer := new(MockMailer)
	mockMailer.On("Send", mock.AnythingOfType("mailservice.Message")).Return(errors.New("smtp down")).Once()
	mockMailer.On("Send", mock.AnythingOfType("mailservice.Message")).Return(nil).Once()

	mockLogger := new(MockLogger)
	mockLogger.On("Info", "delaying welcome email").Return().Once()
	mockLogger.On("Info", "welcome email sent").Return().Once()

	s := newTestMailService(new(MockMessageConsumer), mockMailer, mockLogger)
	t.Cleanup(s.Close)

	s.sendWithBackoff(common.AccountCreatedMessage{UserID: "u1", Email: "test@example.com"})

	mockMailer.AssertNumberOfCalls(t, "Send", 2)
	mockLogger.AssertExpectations(t)
}

func TestSendWelcomeEmailBadMessage(t *testing.T) {
	mockMC := &MockMessageConsumer{Bodies: []string{`not json`}}
	mockMC.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return()

	mockMailer := new(MockMailer)

	logged := make(chan struct{})
	mockLogger := new(MockLogger)
	mockLogger.On("Error", "could not unmarshal message").Return().Run(func(mock.Arguments) { close(logged) })

	s := newTestMailService(mockMC, mockMailer, mockLogger)
	t.Cleanup(s.Close)

	s.SendWelcomeEmail()

	select {
	case <-logged:
	case <-time.After(time.Second):
		t.Fatal("bad message was not reported")
	}

	mockMailer.AssertNotCalled(t, "Send", mock.Anything)
}
