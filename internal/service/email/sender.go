// internal/service/email/sender.go
package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(to, subject, bodyHTML string) error
}

// SMTPSender handles outgoing emails via SMTP.
type SMTPSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	from     string
	fromName string
	secure   bool
}

func NewSMTPSender(host, port, user, pass, from, fromName string, secure bool) *SMTPSender {
	if from == "" {
		from = user
	}
	return &SMTPSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		from:     from,
		fromName: fromName,
		secure:   secure,
	}
}

func (e *SMTPSender) Send(to, subject, bodyHTML string) error {
	msg := buildMessage(fmt.Sprintf("%s <%s>", e.fromName, e.from), to, subject, bodyHTML)
	serverAddr := e.smtpHost + ":" + e.smtpPort

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	}

	if !e.secure {
		// Port 587 - STARTTLS negotiated by SendMail
		if err := smtp.SendMail(serverAddr, auth, e.from, []string{to}, msg); err != nil {
			return fmt.Errorf("send mail failed: %w", err)
		}
		return nil
	}

	// Port 465 - implicit TLS
	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: e.smtpHost})
	if err != nil {
		return fmt.Errorf("tls dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("smtp client failed: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth failed: %w", err)
		}
	}
	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return w.Close()
}

func buildMessage(from, to, subject, bodyHTML string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			wrapHTML(bodyHTML),
	)
}

func wrapHTML(content string) string {
	header := `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8" />
	<style>
		body { font-family: Arial, sans-serif; background-color: #f6f8fa; padding: 30px; }
		.container { max-width: 600px; margin: auto; background: #fff; border-radius: 10px; }
		.header { background: #0b3d91; color: white; text-align: center; padding: 20px; font-size: 22px; }
		.body { padding: 25px; color: #333; line-height: 1.6; }
		.footer { background: #f1f1f1; color: #555; text-align: center; padding: 15px; font-size: 13px; }
	</style>
</head>
<body>
<div class="container">
	<div class="header">DealBridge Billing</div>
	<div class="body">
`
	footer := `
	</div>
	<div class="footer">You receive this email because you hold a DealBridge account.</div>
</div>
</body>
</html>`

	return header + strings.TrimSpace(content) + footer
}
