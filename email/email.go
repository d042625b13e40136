package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
	to       string
}

func NewEmailService(host, port, user, password, from, to string) *EmailService {
	return &EmailService{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
	}
}

// SendContact delivers a contact-form submission to the configured
// destination address. The submitter's address goes into Reply-To so a
// plain reply reaches them; From stays on the authenticated account.
func (e *EmailService) SendContact(name, replyTo, message string) error {
	msg := e.buildMessage(name, replyTo, message)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending contact email: %w", err)
	}
	return nil
}

// headerValue strips CR/LF so a submitted value can never terminate a
// header line and smuggle extra headers into the message.
func headerValue(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func (e *EmailService) buildMessage(name, replyTo, message string) string {
	name = headerValue(name)
	replyTo = headerValue(replyTo)

	subject := fmt.Sprintf("Contact form submission from %s", name)
	body := fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s", name, replyTo, message)

	return fmt.Sprintf("From: %q <%s>\r\n"+
		"Reply-To: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", name, e.from, replyTo, e.to, subject, body)
}
