package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendOTPEmail(email, name, code string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService returns an SMTP-backed sender, or the dev-mode sender
// when no SMTP host is configured. Dev mode logs the code instead of
// sending it so the OTP flow stays usable without outbound email.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	if smtpHost == "" {
		log.Printf("[email] SMTP not configured, OTP codes will be logged")
		return &devEmailService{}
	}
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *emailService) SendOTPEmail(email, name, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your verification code")

	body := fmt.Sprintf(`
		<h3>Hello %s,</h3>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>The code expires in 10 minutes.</p>
		<p>If you did not request this, you can ignore this email.</p>
	`, name, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

type devEmailService struct{}

func (s *devEmailService) SendOTPEmail(email, name, code string) error {
	log.Printf("[email][dev] to=%s code=%s", email, code)
	return nil
}
