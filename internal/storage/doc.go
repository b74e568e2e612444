// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for pai.
//
// The conversation lives in one JSON file, chat_history.json by default,
// holding an array of {"role": "user"|"assistant", "content": "..."} objects.
// It is read once at startup and replaced wholesale at shutdown.
//
// # Usage
//
//	store := storage.NewHistoryStore("")
//	conv := model.NewConversation(store.Load())
//	defer store.Save(conv.Messages())
//
// Load never fails: a missing or corrupt file yields an empty conversation
// and is only logged.
package storage
