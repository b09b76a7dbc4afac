package rag

import "strings"

// ChatMemory is the append-only turn log of one interactive session.
// It is created at session start and discarded with the process. Not
// safe for concurrent use; the loop runs one query at a time.
type ChatMemory struct {
	messages []string
}

func NewChatMemory() *ChatMemory {
	return &ChatMemory{}
}

// AddMessage appends one turn, trimmed of surrounding whitespace.
func (m *ChatMemory) AddMessage(text string) {
	m.messages = append(m.messages, strings.TrimSpace(text))
}

// Recent returns the last n turns in chronological order, or fewer if
// the history is shorter.
func (m *ChatMemory) Recent(n int) []string {
	if n <= 0 || len(m.messages) == 0 {
		return nil
	}
	if n > len(m.messages) {
		n = len(m.messages)
	}
	out := make([]string, n)
	copy(out, m.messages[len(m.messages)-n:])
	return out
}

// Messages returns every turn in order.
func (m *ChatMemory) Messages() []string {
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}
