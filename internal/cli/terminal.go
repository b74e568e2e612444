// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// MODE SELECTION
// =============================================================================

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsStdoutTTY reports whether replies are going to a terminal. Line mode
// drops its banner and markdown styling when they are not.
func IsStdoutTTY() bool {
	return isTerminal(os.Stdout)
}

// CanRunTUI reports whether the chat window can take over the terminal. It
// needs keys from stdin and a screen on stdout; a pipe on either end means
// `pai` falls back to line mode.
func CanRunTUI() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// =============================================================================
// REPLY WIDTH
// =============================================================================

// Bounds for wrapping replies in line mode.
const (
	fallbackReplyWidth = 76
	minReplyWidth      = 36
	maxReplyWidth      = 116
	replyMargin        = 4
)

// ReplyWidth is the column at which line-mode replies are wrapped: the
// terminal width less a margin, kept within readable bounds.
func ReplyWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackReplyWidth
	}
	return clampReplyWidth(width - replyMargin)
}

func clampReplyWidth(w int) int {
	switch {
	case w < minReplyWidth:
		return minReplyWidth
	case w > maxReplyWidth:
		return maxReplyWidth
	default:
		return w
	}
}

// =============================================================================
// COLOR
// =============================================================================

var (
	colorsOnce    sync.Once
	colorsEnabled bool
)

// ColorsEnabled reports whether CLI output is styled. NO_COLOR wins over
// FORCE_COLOR; otherwise colour follows whether stdout is a terminal.
func ColorsEnabled() bool {
	colorsOnce.Do(func() {
		colorsEnabled = wantColor(os.Getenv, IsStdoutTTY())
	})
	return colorsEnabled
}

func wantColor(getenv func(string) string, tty bool) bool {
	if getenv("NO_COLOR") != "" {
		return false
	}
	if getenv("FORCE_COLOR") != "" {
		return true
	}
	return tty
}

// GetColorProfile returns the lipgloss profile for CLI output.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
