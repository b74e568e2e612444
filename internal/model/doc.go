// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: user or assistant
//   - Message: one immutable {role, content} turn
//   - Conversation: mutex-guarded, append-only list of turns
//
// # Usage
//
//	conv := model.NewConversation(nil)
//	conv.Append(model.NewUserMessage("Hello!"))
//	for _, msg := range conv.Messages() {
//	    fmt.Printf("%s: %s\n", msg.Role.DisplayName(), msg.Content)
//	}
package model
