// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTheme_Mode(t *testing.T) {
	assert.True(t, NewTheme("dark").IsDark)
	assert.True(t, NewTheme("DARK").IsDark)
	assert.False(t, NewTheme("light").IsDark)
}

func TestTheme_InputStyle(t *testing.T) {
	th := NewTheme("dark")
	assert.Equal(t, th.InputBox.GetBorderStyle(), th.InputStyle(true).GetBorderStyle())
	assert.Equal(t, Cyan, th.InputStyle(true).GetBorderTopForeground())
	assert.Equal(t, Overlay, th.InputStyle(false).GetBorderTopForeground())
}

func TestRenderIndicators(t *testing.T) {
	assert.Contains(t, RenderSuccess("connected"), "[OK] connected")
	assert.Contains(t, RenderError("offline"), "[X] offline")
	assert.Contains(t, RenderPending("checking"), "[ ] checking")
}
