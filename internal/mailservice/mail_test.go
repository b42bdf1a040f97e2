package mailservice

import (
	"errors"
	"testing"

	"github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSMTPMailerSend(t *testing.T) {
	rendered := &Rendered{Subject: "Test Subject", Plain: "Test Plain Body", HTML: "<p>Test HTML Body</p>"}

	testCases := []struct {
		name      string
		renderErr error
		dialErr   error
		wantErr   bool
		wantDial  bool
	}{
		{name: "success", wantDial: true},
		{name: "render failure", renderErr: errors.New("bad template"), wantErr: true},
		{name: "dial failure", dialErr: errors.New("connection refused"), wantErr: true, wantDial: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			renderer := new(MockRenderer)
			dialer := new(MockDialer)

			mailer := &SMTPMailer{dialer: dialer, renderer: renderer, sender: "sender@example.com"}

			if tc.renderErr != nil {
				renderer.On("Render", welcomeTemplate, mock.Anything).Return(nil, tc.renderErr)
			} else {
				renderer.On("Render", welcomeTemplate, mock.Anything).Return(rendered, nil)
			}

			var sent *mail.Message
			dialer.On("DialAndSend", mock.AnythingOfType("[]*mail.Message")).Return(tc.dialErr).Run(func(args mock.Arguments) {
				sent = args.Get(0).([]*mail.Message)[0]
			})

			err := mailer.Send(Message{To: "test@example.com", Template: welcomeTemplate, Data: welcomeData{Email: "test@example.com"}})
			assert.Equal(t, tc.wantErr, err != nil)

			if !tc.wantDial {
				dialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
				return
			}

			if assert.NotNil(t, sent) {
				assert.Equal(t, []string{"test@example.com"}, sent.GetHeader("To"))
				assert.Equal(t, []string{"sender@example.com"}, sent.GetHeader("From"))
				assert.Equal(t, []string{"Test Subject"}, sent.GetHeader("Subject"))
			}
		})
	}
}
