package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPMailer is the minimal mail-transport adapter behind the Mailer
// boundary. Delivery semantics beyond "send one plain-text message" belong to
// the mail infrastructure, not this service.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}
