// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/pai/internal/config"
)

// =============================================================================
// POLLING
// =============================================================================

// PollTickMsg asks the App to drain the reply queue.
type PollTickMsg struct {
	Time time.Time
}

// =============================================================================
// OLLAMA
// =============================================================================

// OllamaStatusMsg reports the startup reachability check.
type OllamaStatusMsg struct {
	Running bool
	Error   error
}

// =============================================================================
// CONFIG
// =============================================================================

// ConfigReloadedMsg carries a config that changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// CopyResultMsg reports the outcome of a clipboard copy.
type CopyResultMsg struct {
	Chars int
	Error error
}
