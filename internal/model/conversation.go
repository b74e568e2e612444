// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sync"

// Conversation is the ordered list of turns exchanged with the model.
//
// It is append-only while the program runs and replaced wholesale on load.
// The UI submit path and the dispatcher worker both append, so every access
// goes through mu even though only one request is ever in flight.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates a conversation seeded with msgs (which may be nil).
func NewConversation(msgs []Message) *Conversation {
	c := &Conversation{}
	c.Replace(msgs)
	return c
}

// Append adds msg to the end of the conversation.
func (c *Conversation) Append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Replace discards the current turns and installs a copy of msgs.
func (c *Conversation) Replace(msgs []Message) {
	cp := make([]Message, len(msgs))
	copy(cp, msgs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = cp
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Messages returns a snapshot of the turns in chronological order.
// The returned slice is never nil.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent turn, or false if the conversation is empty.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastAssistant returns the most recent assistant turn.
func (c *Conversation) LastAssistant() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
