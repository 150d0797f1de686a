package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"airthlab/config"
)

// Mailer delivers one-time codes. Implementations must report delivery
// failures; silently dropping a code leaves the caller waiting for an email
// that never arrives.
type Mailer interface {
	SendOTP(ctx context.Context, toEmail, code string) error
}

type SendGridMailer struct {
	client        *sendgrid.Client
	fromEmail     string
	fromName      string
	otpTTLMinutes int
}

func NewSendGridMailer(cfg *config.Config) *SendGridMailer {
	return &SendGridMailer{
		client:        sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail:     cfg.MailFrom,
		fromName:      cfg.MailFromName,
		otpTTLMinutes: cfg.OTPExpireMinutes,
	}
}

func (m *SendGridMailer) SendOTP(ctx context.Context, toEmail, code string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail("", toEmail)
	body := otpMailBody(code, m.otpTTLMinutes)
	message := mail.NewSingleEmail(from, "Airthlab OTP Code", to, body, body)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending OTP email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected OTP email: status %d", response.StatusCode)
	}
	return nil
}

func otpMailBody(code string, ttlMinutes int) string {
	return fmt.Sprintf(`Hello,

Welcome to Airthlab - your real-time analytics platform for intelligent data insights.

Your One-Time Password (OTP) for secure authentication is:

OTP: %s

This OTP is valid for the next %d minutes.

Airthlab enables powerful real-time data analytics, advanced monitoring, and actionable insights to help you make smarter decisions faster.

If you did not request this code, please ignore this email. Your account remains secure.

Best regards,
The Airthlab Team`, code, ttlMinutes)
}
