// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/ui/styles"
	"github.com/jeranaias/pai/internal/util"
)

// Fixed heights around the transcript. The input box has a border above and
// below its single line.
const (
	headerHeight    = 1
	inputAreaHeight = 3
	statusBarHeight = 1
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the chat window.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}

	parts := []string{
		a.renderHeader(),
		a.viewport.View(),
		a.renderInput(),
	}
	if a.help.ShowAll {
		parts = append(parts, a.help.View(a.keyMap))
	}
	parts = append(parts, a.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.width = msg.Width
	a.height = msg.Height
	a.layout()
	return a, nil
}

// layout sizes the transcript to whatever the fixed rows and the key help
// leave over.
func (a *App) layout() {
	a.help.Width = a.width

	viewportHeight := a.height - headerHeight - inputAreaHeight - statusBarHeight
	if a.help.ShowAll {
		viewportHeight -= lipgloss.Height(a.help.View(a.keyMap))
	}
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = viewportHeight

	// Border (2) + padding (2) + prompt.
	a.input.Width = calculateContentWidth(a.width, 4+lipgloss.Width(a.input.Prompt)+1)

	a.refreshViewport()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders every entry and pins the view to the newest one.
func (a *App) refreshViewport() {
	width := calculateContentWidth(a.viewport.Width, 2)

	blocks := make([]string, len(a.entries))
	for i, e := range a.entries {
		blocks[i] = a.renderEntry(e, width)
	}
	a.viewport.SetContent(strings.Join(blocks, "\n\n"))
	a.viewport.GotoBottom()
}

func (a *App) renderEntry(e entry, width int) string {
	label := e.role.DisplayName() + ": "

	switch {
	case e.role == model.RoleUser:
		return a.theme.UserLabel.Render(label) +
			a.theme.UserText.Render(wrapText(e.text, width-lipgloss.Width(label)))

	case e.failed:
		return a.theme.AssistantLabel.Render(label) +
			a.theme.ErrorText.Render(wrapText(e.text, width-lipgloss.Width(label)))

	case a.useMarkdown:
		return a.theme.AssistantLabel.Render(label) + "\n" + a.markdown.Render(e.text, width)

	default:
		return a.theme.AssistantLabel.Render(label) +
			a.theme.AssistantText.Render(wrapText(e.text, width-lipgloss.Width(label)))
	}
}

// =============================================================================
// HEADER
// =============================================================================

func (a App) renderHeader() string {
	title := a.theme.HeaderTitle.Render(a.title)
	modelName := a.theme.HeaderModel.Render(a.modelName)

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(modelName) - 2
	if gap < 1 {
		gap = 1
	}
	return a.theme.Header.Width(a.width).Render(title + strings.Repeat(" ", gap) + modelName)
}

// =============================================================================
// INPUT
// =============================================================================

func (a App) renderInput() string {
	box := a.theme.InputStyle(!a.sending).Width(calculateContentWidth(a.width, 2))
	return box.Render(a.input.View())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (a App) renderStatusBar() string {
	var left string
	switch {
	case a.sending:
		elapsed := time.Since(a.sendStart).Truncate(time.Second)
		left = a.spinner.View() + " " + a.theme.ThinkingText.Render(fmt.Sprintf("Waiting for %s... %s", a.modelName, elapsed))
	case a.statusMsg != "":
		left = a.theme.StatusBar.Render(util.TruncateWidth(a.statusMsg, a.width/2))
	default:
		left = a.renderOllamaStatus()
	}

	right := a.help.ShortHelpView(a.keyMap.ShortHelp())

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a App) renderOllamaStatus() string {
	switch a.ollamaState {
	case OllamaOnline:
		return styles.RenderSuccess("Ollama connected")
	case OllamaOffline:
		msg := "Ollama not reachable"
		switch {
		case ollama.IsNotRunning(a.ollamaErr):
			msg = "Ollama not running; start it with: ollama serve"
		case a.ollamaErr != nil:
			msg += ": " + a.ollamaErr.Error()
		}
		return styles.RenderError(util.TruncateWidth(msg, a.width/2))
	default:
		return styles.RenderPending("Checking Ollama...")
	}
}
