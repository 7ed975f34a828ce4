package mail

import (
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail. Registration uses it fire-and-forget; a
// failed welcome mail is logged by the caller, never surfaced to the client.
type Mailer interface {
	SendWelcome(toEmail, fullName string) error
}

type SendgridMailer struct {
	client *sendgrid.Client
	from   string
}

func NewSendgridMailer(apiKey, from string) *SendgridMailer {
	if apiKey == "" {
		return &SendgridMailer{from: from}
	}
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), from: from}
}

func (m *SendgridMailer) SendWelcome(toEmail, fullName string) error {
	if m.client == nil {
		return nil // mail disabled
	}
	from := sgmail.NewEmail("VideoStream", m.from)
	to := sgmail.NewEmail(fullName, toEmail)
	subject := "Welcome to VideoStream"
	plain := fmt.Sprintf("Hi %s, your VideoStream account is ready.", fullName)
	html := fmt.Sprintf("<p>Hi %s, your VideoStream account is ready.</p>", fullName)

	resp, err := m.client.Send(sgmail.NewSingleEmail(from, subject, to, plain, html))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return errors.New("mail provider rejected the message")
	}
	return nil
}
