package services

import (
	"context"
	"sync"
)

// MockMailer records sent emails for testing
type MockMailer struct {
	mu   sync.Mutex
	sent []Email

	// Err, when set, is returned by Send
	Err error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(_ context.Context, email Email) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.sent = append(m.sent, email)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of every email delivered so far
func (m *MockMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}
