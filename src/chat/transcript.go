// Package chat keeps the ordered message log of a conversation and
// persists it between runs.
package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// NewMessage stamps text from sender with a fresh id and the current time.
func NewMessage(sender Sender, text string) Message {
	return Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Text:   text,
		At:     time.Now().UTC(),
	}
}

// Transcript is an append-only, ordered log of messages owned by the
// caller. It is safe for concurrent use.
type Transcript struct {
	id string

	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates an empty transcript for conversation id.
func NewTranscript(id string) *Transcript {
	return &Transcript{id: id}
}

// ID is the conversation id.
func (t *Transcript) ID() string { return t.id }

// Append adds m to the end of the log.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the log in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

// Len is the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
