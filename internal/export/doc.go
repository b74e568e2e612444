// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the saved conversation to a standalone file.
//
// # Supported Formats
//
//   - Markdown: human-readable, one heading per turn
//   - JSON: the {role, content} array, indented
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", opts)
//	path, err := export.ExportToFile(msgs, exp, opts)
package export
