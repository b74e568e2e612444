// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/dispatch"
	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/storage"
	"github.com/jeranaias/pai/internal/ui/styles"
)

// =============================================================================
// CONNECTION STATE
// =============================================================================

// OllamaState is the last known reachability of the completion service.
type OllamaState int

const (
	OllamaChecking OllamaState = iota
	OllamaOnline
	OllamaOffline
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// entry is one block of the transcript.
type entry struct {
	role   model.Role
	text   string
	failed bool
}

// plain returns the entry as it reads without styling.
func (e entry) plain() string {
	return e.role.DisplayName() + ": " + e.text
}

// =============================================================================
// APP MODEL
// =============================================================================

// Options wires an App to its collaborators.
type Options struct {
	Dispatcher *dispatch.Dispatcher
	Store      *storage.HistoryStore
	Checker    StatusChecker
	Config     *config.Config
	Theme      *styles.Theme
}

// App is the Bubble Tea model of the chat window. All state lives here and
// flows through Update; there are no package-level globals.
type App struct {
	dispatcher *dispatch.Dispatcher
	store      *storage.HistoryStore
	checker    StatusChecker
	theme      *styles.Theme
	keyMap     KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model

	entries []entry

	title        string
	modelName    string
	pollInterval time.Duration
	markdown     *markdownRenderer
	useMarkdown  bool
	copyFn       func(string) error

	// Status line
	ollamaState OllamaState
	ollamaErr   error
	statusMsg   string

	// Request state as last observed by the poll loop
	sending   bool
	sendStart time.Time

	saved   bool
	saveErr error

	width  int
	height int
}

// New creates the chat window. The transcript is rebuilt from whatever the
// dispatcher's conversation already holds.
func New(opts Options) App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your message here..."
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	hm := help.New()
	hm.ShortSeparator = "  "
	hm.Styles.ShortKey = theme.SendHint
	hm.Styles.ShortDesc = theme.SendHint
	hm.Styles.FullKey = theme.SendHint
	hm.Styles.FullDesc = theme.SendHint

	a := App{
		dispatcher:   opts.Dispatcher,
		store:        opts.Store,
		checker:      opts.Checker,
		theme:        theme,
		keyMap:       DefaultKeyMap(),
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		help:         hm,
		title:        cfg.UI.Title,
		modelName:    opts.Dispatcher.Model(),
		pollInterval: cfg.PollInterval(),
		markdown:     newMarkdownRenderer(theme.IsDark),
		useMarkdown:  cfg.UI.Markdown,
		copyFn:       copyToClipboard,
		ollamaState:  OllamaChecking,
	}
	if a.pollInterval <= 0 {
		a.pollInterval = config.Default().PollInterval()
	}

	for _, m := range opts.Dispatcher.Conversation().Messages() {
		a.entries = append(a.entries, entry{role: m.Role, text: m.Content})
	}
	a.refreshViewport()
	return a
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the poll loop and the Ollama status check.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		PollCmd(a.pollInterval),
		CheckOllamaCmd(a.checker),
	)
}

// Update handles messages and updates the model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleResize(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case PollTickMsg:
		cmd := a.drainReplies()
		return a, tea.Batch(cmd, PollCmd(a.pollInterval))

	case OllamaStatusMsg:
		if msg.Running {
			a.ollamaState = OllamaOnline
			a.ollamaErr = nil
		} else {
			a.ollamaState = OllamaOffline
			a.ollamaErr = msg.Error
		}
		return a, nil

	case ConfigReloadedMsg:
		a.applyConfig(msg.Config)
		return a, nil

	case CopyResultMsg:
		if msg.Error != nil {
			a.statusMsg = "Copy failed: " + msg.Error.Error()
		} else {
			a.statusMsg = fmt.Sprintf("Copied %d chars", msg.Chars)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.sending {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keyMap.Quit):
		a.save()
		return a, tea.Quit

	case key.Matches(msg, a.keyMap.Submit):
		return a.submit()

	case key.Matches(msg, a.keyMap.Copy):
		last, ok := a.dispatcher.Conversation().LastAssistant()
		if !ok {
			a.statusMsg = "No reply to copy"
			return a, nil
		}
		return a, CopyCmd(a.copyFn, last.Content)

	case key.Matches(msg, a.keyMap.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
		return a, nil

	case key.Matches(msg, a.keyMap.Up):
		a.viewport.LineUp(1)
		return a, nil
	case key.Matches(msg, a.keyMap.Down):
		a.viewport.LineDown(1)
		return a, nil
	case key.Matches(msg, a.keyMap.PageUp):
		a.viewport.HalfViewUp()
		return a, nil
	case key.Matches(msg, a.keyMap.PageDown):
		a.viewport.HalfViewDown()
		return a, nil
	case key.Matches(msg, a.keyMap.Top):
		a.viewport.GotoTop()
		return a, nil
	case key.Matches(msg, a.keyMap.Bottom):
		a.viewport.GotoBottom()
		return a, nil
	}

	if a.sending {
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit hands the input to the dispatcher. Empty input and a submit while
// a request is outstanding leave everything untouched.
func (a App) submit() (tea.Model, tea.Cmd) {
	if a.sending {
		return a, nil
	}

	if _, err := a.dispatcher.Submit(a.input.Value()); err != nil {
		if !errors.Is(err, dispatch.ErrEmptyInput) && !errors.Is(err, dispatch.ErrBusy) {
			a.statusMsg = err.Error()
		}
		return a, nil
	}

	// The dispatcher stores the trimmed text; show exactly that.
	if last, ok := a.dispatcher.Conversation().Last(); ok {
		a.entries = append(a.entries, entry{role: last.Role, text: last.Content})
	}
	a.input.Reset()
	a.input.Blur()
	a.sending = true
	a.sendStart = time.Now()
	a.statusMsg = ""
	a.refreshViewport()

	return a, a.spinner.Tick
}

// =============================================================================
// POLL LOOP
// =============================================================================

// drainReplies appends queued replies to the transcript and re-enables the
// input once the dispatcher is idle. Busy is read before draining: the
// dispatcher enqueues before going idle, so an idle reading guarantees the
// reply is already in the queue.
func (a *App) drainReplies() tea.Cmd {
	busy := a.dispatcher.Busy()
	q := a.dispatcher.Queue()
	if q.Len() == 0 && busy == a.sending {
		return nil
	}
	replies := q.Drain()

	for _, r := range replies {
		a.entries = append(a.entries, entry{
			role:   model.RoleAssistant,
			text:   r.Text,
			failed: r.Failed(),
		})
		a.noteFailure(r.Err)
	}
	if len(replies) > 0 {
		a.refreshViewport()
	}

	if a.sending && !busy {
		a.sending = false
		return a.input.Focus()
	}
	return nil
}

// noteFailure updates the status line for request errors that have a known
// remedy.
func (a *App) noteFailure(err error) {
	switch {
	case err == nil:
	case ollama.IsNotRunning(err):
		a.ollamaState = OllamaOffline
		a.ollamaErr = err
	case ollama.IsModelNotFound(err):
		a.statusMsg = fmt.Sprintf("Model %q not found; run: ollama pull %s", a.modelName, a.modelName)
	}
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.dispatcher.SetModel(cfg.Model)
	a.modelName = cfg.Model
	if cfg.PollIntervalMs > 0 {
		a.pollInterval = cfg.PollInterval()
	}
	if cfg.UI.Title != "" {
		a.title = cfg.UI.Title
	}
	if a.useMarkdown != cfg.UI.Markdown {
		a.useMarkdown = cfg.UI.Markdown
		a.refreshViewport()
	}
	a.statusMsg = "Config reloaded"
	log.Printf("CONFIG_APPLIED | model=%s markdown=%t", cfg.Model, cfg.UI.Markdown)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// save writes the conversation. Failures are logged by the store and
// recorded here; quitting proceeds either way.
func (a *App) save() {
	if a.store == nil {
		return
	}
	a.saveErr = a.store.Save(a.dispatcher.Conversation().Messages())
	a.saved = true
}

// Saved reports whether the App saved the conversation on quit.
func (a App) Saved() bool {
	return a.saved
}

// SaveError returns the error from the save on quit, if any.
func (a App) SaveError() error {
	return a.saveErr
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Sending reports whether the App is waiting on a reply.
func (a App) Sending() bool {
	return a.sending
}

// InputEnabled reports whether the input accepts typing.
func (a App) InputEnabled() bool {
	return a.input.Focused()
}

// Transcript returns the transcript blocks as plain "You: ..." / "Bot: ..."
// lines.
func (a App) Transcript() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.plain()
	}
	return out
}

// ModelName returns the model shown in the header.
func (a App) ModelName() string {
	return a.modelName
}

// OllamaState returns the last reachability result.
func (a App) OllamaState() OllamaState {
	return a.ollamaState
}

// StatusMessage returns the transient status line text.
func (a App) StatusMessage() string {
	return a.statusMsg
}
