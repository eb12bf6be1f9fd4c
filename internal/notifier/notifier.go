package notifier

import "context"

// Message представляет письмо для отправки пользователю
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier отправляет уведомления на контактный адрес пользователя.
// Доставка best-effort: вызывающий код не должен зависеть от результата.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Noop реализует Notifier без отправки, используется когда SMTP выключен
type Noop struct{}

// Notify ничего не делает
func (Noop) Notify(context.Context, Message) error {
	return nil
}
