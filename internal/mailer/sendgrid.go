package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers the contest notices. Without an API key it only logs them.
type SendGridMailer struct {
	client   sender
	from     *mail.Email
	disabled bool
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail(fromName, fromEmail),
		disabled: apiKey == "",
	}
}

func (m *SendGridMailer) SendRegistrationConfirmation(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nyour registration to the Santa 3D contest is confirmed. "+
		"Upload your video and tag the contest account on Instagram to take part.", name)
	return m.send(ctx, to, name, "Santa 3D contest registration", body)
}

func (m *SendGridMailer) SendJudgeWelcome(ctx context.Context, to, name, tempPassword string) error {
	body := fmt.Sprintf("Hello %s,\n\nyou have been added to the Santa 3D jury.\n"+
		"Temporary password: %s\nYou will be asked to change it on first login.", name, tempPassword)
	return m.send(ctx, to, name, "Santa 3D jury access", body)
}

func (m *SendGridMailer) SendPasswordReset(ctx context.Context, to, name, tempPassword string) error {
	body := fmt.Sprintf("Hello %s,\n\nyour jury password has been reset.\n"+
		"Temporary password: %s", name, tempPassword)
	return m.send(ctx, to, name, "Santa 3D jury password reset", body)
}

func (m *SendGridMailer) send(ctx context.Context, to, name, subject, body string) error {
	if m.disabled {
		logging.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail delivery disabled, notice skipped")
		return nil
	}

	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, to), body, "")
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d - %s", response.StatusCode, response.Body)
	}
	return nil
}
