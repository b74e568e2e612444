// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the rest of pai.
//
// String Utilities:
//   - TruncateWidth: column-aware truncation with ellipsis
//   - Preview: single-line truncated preview for logs
//
// File Operations:
//   - AtomicWriteFile: crash-safe whole-file replacement with fsync
//
// # Usage
//
//	err := util.AtomicWriteFile("chat_history.json", data, 0644)
//	log.Printf("SUBMIT | text=%q", util.Preview(text, 40))
package util
