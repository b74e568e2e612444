// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the pai chat window.
// Colors are Lip Gloss AdaptiveColors so one palette serves light and dark
// terminals; NewTheme pins the background mode from the ui.theme setting.
package styles
