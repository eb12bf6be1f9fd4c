package notifier

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPNotifier реализует Notifier поверх SMTP сервера
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

// NewSMTPNotifier создает новый SMTPNotifier
func NewSMTPNotifier(host string, port int, username, password, from string) (*SMTPNotifier, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPNotifier{
		client: client,
		from:   from,
	}, nil
}

// Notify отправляет одно письмо
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}
