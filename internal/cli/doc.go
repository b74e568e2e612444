// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of pai.
//
// # Commands
//
//   - tui (default): full-screen chat window
//   - chat: line-mode chat on stdin/stdout, chosen automatically when
//     stdout is not a terminal
//   - history [--json] [--last N]: print the saved conversation
//   - version, help
//
// Global flags --model, --url, --history, --config and --debug override the
// configuration file and environment for one run.
package cli
