package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	To       string
	Subject  string
	TextBody string
}

// Log writes mails to the logger instead of delivering them. Bodies are
// only logged when includeBody is set (development).
type Log struct {
	log         *zap.Logger
	includeBody bool
}

func NewLog(log *zap.Logger, includeBody bool) *Log {
	return &Log{log: log, includeBody: includeBody}
}

func (l *Log) Send(_ context.Context, e Email) error {
	fields := []zap.Field{zap.String("to", e.To), zap.String("subject", e.Subject)}
	if l.includeBody {
		fields = append(fields, zap.String("body", e.TextBody))
	}
	l.log.Info("mail not delivered (no SMTP configured)", fields...)
	return nil
}

// Mock records every mail it is asked to send.
type Mock struct {
	mu   sync.Mutex
	Sent []Email
	Err  error
}

func (m *Mock) Send(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, e)
	return nil
}

func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
