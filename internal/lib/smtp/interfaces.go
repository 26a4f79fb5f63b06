// Package smtp оборачивает net/smtp в интерфейсы, подменяемые в тестах.
package smtp

import "io"

// Client минимальное подмножество операций *smtp.Client,
// нужное для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface фабрика аутентифицированных SMTP-соединений.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
