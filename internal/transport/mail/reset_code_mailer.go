package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/neuroguard/neuroguard-api/internal/domain"
)

// ResetCodeMailer delivers password reset codes over SMTP.
type ResetCodeMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewResetCodeMailer(host, port, username, password, from string) *ResetCodeMailer {
	return &ResetCodeMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
	}
}

func (m *ResetCodeMailer) SendResetCode(ctx context.Context, user *domain.User, code string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	subject := "Password Reset Code"
	body := resetMessageBody(user, code)

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", user.Email))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{user.Email}, []byte(message.String()))
}

func resetMessageBody(user *domain.User, code string) string {
	return fmt.Sprintf(`<h2 style="color: #4CAF50; text-align: center;">Password Reset Request</h2>
<p>Dear %s %s,</p>
<p>We received a request to reset your password. Please use the following code to reset your password. This code will expire in 10 minutes:</p>
<h3 style="text-align: center; color: #333;">%s</h3>
<p>If you did not request a password reset, you can safely ignore this email.</p>
<p>For your security, never share this code with anyone.</p>
<hr />
<p style="font-size: 12px; color: #888;">If you have any questions, please contact our support team at <a href="mailto:neuroguard6@gmail.com">neuroguard6@gmail.com</a>.</p>
<p style="font-size: 12px; color: #888;">Thank you,<br />The Neuro Guard Team</p>`,
		user.FirstName, user.LastName, code)
}
