package email

import (
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendPasswordResetEmail(toEmail, toName, token string) error
	SendEnrollmentCodeEmail(toEmail, toName, courseName, code string) error
	SendWelcomeEmail(toEmail, toName string) error
}

// SMTPConfig holds configuration for the SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string // Base URL of the web application, used in links
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendPasswordResetEmail sends an email with a password reset link
func (s *EmailServiceImpl) SendPasswordResetEmail(toEmail, toName, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token)

	// Without SMTP credentials, log the reset URL instead (development only)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", resetURL).
			Msg("SMTP credentials not configured - password reset email not sent. Use the URL above for testing.")
		return nil
	}

	subject := "Reset Your Password - B-Trade"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Password Reset</h2>
				<p>Hello %s,</p>
				<p>We received a request to reset the password of your B-Trade account. Click the button below to choose a new password:</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
				</div>
				<p>This link will expire in 1 hour. If you did not request a reset, you can safely ignore this email.</p>
				<p>Best regards,<br>The B-Trade Team</p>
			</div>
		</body>
		</html>
	`, toName, resetURL)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendEnrollmentCodeEmail sends a confirmation code for an enrollment
func (s *EmailServiceImpl) SendEnrollmentCodeEmail(toEmail, toName, courseName, code string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("courseName", courseName).
			Str("code", code).
			Msg("SMTP credentials not configured - enrollment code email not sent. Use the code above for testing.")
		return nil
	}

	subject := "Your Enrollment Confirmation Code - B-Trade"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Enrollment Confirmation</h2>
				<p>Hello %s,</p>
				<p>Use the code below to confirm your enrollment in <strong>%s</strong>:</p>
				<div style="text-align: center; margin: 30px 0; font-size: 24px; letter-spacing: 4px;"><strong>%s</strong></div>
				<p>The code can be used once and expires in 48 hours.</p>
				<p>Best regards,<br>The B-Trade Team</p>
			</div>
		</body>
		</html>
	`, toName, courseName, code)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendWelcomeEmail sends a welcome email to a newly registered user
func (s *EmailServiceImpl) SendWelcomeEmail(toEmail, toName string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Msg("SMTP credentials not configured - welcome email not sent.")
		return nil
	}

	subject := "Welcome to B-Trade"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to B-Trade!</h2>
				<p>Hello %s,</p>
				<p>Your account has been created. Browse the course catalog and enroll in your first course whenever you are ready.</p>
				<p>Best regards,<br>The B-Trade Team</p>
			</div>
		</body>
		</html>
	`, toName)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email via SMTP
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}

	msg := []byte(
		"From: " + from + "\r\n" +
			"To: " + toEmail + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
			"\r\n" +
			htmlBody,
	)

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{toEmail}, msg); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Str("subject", subject).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
