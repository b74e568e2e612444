// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Bot", RoleAssistant.DisplayName())
	assert.Equal(t, "system", Role("system").DisplayName())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("tool").Valid())
	assert.False(t, Role("").Valid())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendPreservesOrder(t *testing.T) {
	conv := NewConversation(nil)
	conv.Append(NewUserMessage("Hello"))
	conv.Append(NewAssistantMessage("Hi there"))
	conv.Append(NewUserMessage("Hello"))

	msgs := conv.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, NewUserMessage("Hello"), msgs[0])
	assert.Equal(t, NewAssistantMessage("Hi there"), msgs[1])
	// No dedup
	assert.Equal(t, NewUserMessage("Hello"), msgs[2])
}

func TestConversation_MessagesIsSnapshot(t *testing.T) {
	conv := NewConversation([]Message{NewUserMessage("a")})

	snap := conv.Messages()
	snap[0] = NewUserMessage("changed")
	conv.Append(NewAssistantMessage("b"))

	assert.Len(t, snap, 1)
	assert.Equal(t, "a", conv.Messages()[0].Content)
}

func TestConversation_Replace(t *testing.T) {
	src := []Message{NewUserMessage("x"), NewAssistantMessage("y")}
	conv := NewConversation([]Message{NewUserMessage("old")})

	conv.Replace(src)
	src[0] = NewUserMessage("mutated")

	assert.Equal(t, 2, conv.Len())
	assert.Equal(t, "x", conv.Messages()[0].Content)
}

func TestConversation_EmptyMessagesNotNil(t *testing.T) {
	conv := NewConversation(nil)
	msgs := conv.Messages()
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	_, ok := conv.Last()
	assert.False(t, ok)
}

func TestConversation_LastAssistant(t *testing.T) {
	conv := NewConversation([]Message{
		NewUserMessage("q1"),
		NewAssistantMessage("a1"),
		NewUserMessage("q2"),
	})

	msg, ok := conv.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "a1", msg.Content)

	last, ok := conv.Last()
	require.True(t, ok)
	assert.Equal(t, "q2", last.Content)
}

func TestConversation_ConcurrentAppend(t *testing.T) {
	conv := NewConversation(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv.Append(NewUserMessage("x"))
			_ = conv.Messages()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, conv.Len())
}
