// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/ollama"
)

// StatusChecker reports whether the completion service is reachable.
type StatusChecker interface {
	CheckRunning(ctx context.Context) error
}

// statusCheckTimeout bounds the startup reachability probe only. Chat
// requests themselves carry no deadline.
const statusCheckTimeout = 5 * time.Second

// =============================================================================
// POLLING
// =============================================================================

// PollCmd fires a PollTickMsg after interval.
func PollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return PollTickMsg{Time: t}
	})
}

// =============================================================================
// OLLAMA STATUS
// =============================================================================

// CheckOllamaCmd creates a command that checks if Ollama is running.
func CheckOllamaCmd(checker StatusChecker) tea.Cmd {
	return func() tea.Msg {
		if checker == nil {
			return OllamaStatusMsg{Running: false, Error: ollama.ErrNotRunning}
		}

		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		err := checker.CheckRunning(ctx)
		return OllamaStatusMsg{
			Running: err == nil,
			Error:   err,
		}
	}
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// CopyCmd copies text with copyFn off the update loop.
func CopyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return CopyResultMsg{Error: err}
		}
		return CopyResultMsg{Chars: len([]rune(text))}
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// ConfigReloaded wraps a reloaded config for delivery with Program.Send.
func ConfigReloaded(cfg *config.Config) tea.Msg {
	return ConfigReloadedMsg{Config: cfg}
}
