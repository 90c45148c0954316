package mailer

import (
	"context"
	"sync"
)

// Message is a captured email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// FakeMailer records messages instead of sending them.
type FakeMailer struct {
	mu       sync.Mutex
	messages []Message

	// SendErr, when set, is returned by Send to simulate delivery failures.
	SendErr error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

func (m *FakeMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return m.SendErr
	}
	m.messages = append(m.messages, Message{To: to, Subject: subject, HTML: html})
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *FakeMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
