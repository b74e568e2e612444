// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"golang.org/x/text/cases"

	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/dispatch"
	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/storage"
)

// =============================================================================
// INPUT
// =============================================================================

// LineReader supplies lines of user input.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// ChatCLI provides line editing and input history for line mode.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose input history lives in the config
// directory. This is the arrow-key recall list, not the conversation.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "input_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads one line.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// AppendHistory adds item to the recall list.
func (c *ChatCLI) AppendHistory(item string) {
	c.line.AppendHistory(item)
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession is a line-mode conversation. It shares the Dispatcher and
// Queue with the chat window; instead of polling it blocks on Queue.Ready.
type ChatSession struct {
	Dispatcher *dispatch.Dispatcher
	Store      *storage.HistoryStore
	Input      LineReader
	Out        io.Writer
	Err        io.Writer

	// Markdown renders replies when set; nil prints them verbatim.
	Markdown *glamour.TermRenderer

	// Quiet suppresses the banner.
	Quiet bool
}

// NewMarkdownRenderer returns a glamour renderer wrapping at width.
func NewMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
}

// Run reads lines until EOF, Ctrl+C, /quit or ctx is cancelled, then saves
// the conversation. A save failure is reported on Err but is not an error
// of Run.
func (s *ChatSession) Run(ctx context.Context) error {
	defer s.save()

	if !s.Quiet {
		s.printWelcome()
	}

	for {
		input, err := s.Input.Prompt(model.RoleUser.DisplayName() + ": ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.Out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if name, args, ok := parseSlashCommand(trimmed); ok {
			if !s.handleSlashCommand(name, args) {
				return nil
			}
			continue
		}
		// "//text" sends "/text" as a message.
		if strings.HasPrefix(trimmed, "//") {
			input = trimmed[1:]
		}

		if _, err := s.Dispatcher.Submit(input); err != nil {
			if !errors.Is(err, dispatch.ErrEmptyInput) {
				DisplayError(s.Err, err)
			}
			continue
		}
		s.Input.AppendHistory(trimmed)

		if err := s.awaitReply(ctx); err != nil {
			fmt.Fprintln(s.Out)
			return nil
		}
	}
}

// awaitReply blocks until the outstanding request's reply has been printed.
func (s *ChatSession) awaitReply(ctx context.Context) error {
	q := s.Dispatcher.Queue()
	for {
		select {
		case <-q.Ready():
			replies := q.Drain()
			for _, r := range replies {
				s.printReply(r)
			}
			if len(replies) > 0 {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *ChatSession) save() {
	if s.Store == nil {
		return
	}
	if err := s.Store.Save(s.Dispatcher.Conversation().Messages()); err != nil {
		DisplayError(s.Err, fmt.Errorf("conversation not saved: %w", err))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashCommands are the names parseSlashCommand recognises. Any other line
// starting with "/" is sent as a message.
var slashCommands = map[string]bool{
	"/quit": true, "/q": true, "/exit": true,
	"/help": true, "/h": true, "/?": true, "/": true,
	"/model": true, "/m": true,
	"/history": true,
}

// parseSlashCommand splits line into a command name and its arguments when
// its first word is a known command. Names match case-insensitively.
func parseSlashCommand(line string) (string, []string, bool) {
	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		return "", nil, false
	}
	parts := strings.Fields(line)
	name := cases.Fold().String(parts[0])
	if !slashCommands[name] {
		return "", nil, false
	}
	return name, parts[1:], true
}

// handleSlashCommand runs a /command and reports whether to keep going.
func (s *ChatSession) handleSlashCommand(command string, args []string) bool {
	switch command {
	case "/quit", "/q", "/exit":
		return false

	case "/help", "/h", "/?", "/":
		s.printHelp()

	case "/model", "/m":
		if len(args) == 0 {
			fmt.Fprintf(s.Out, "%s %s\n", DimStyle.Render("Model:"), s.Dispatcher.Model())
			break
		}
		s.Dispatcher.SetModel(args[0])
		log.Printf("MODEL_SWITCH | model=%s", args[0])
		fmt.Fprintf(s.Out, "%s %s\n", SuccessStyle.Render("Switched to model:"), args[0])

	case "/history":
		PrintConversation(s.Out, s.Dispatcher.Conversation().Messages())
	}
	return true
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

func (s *ChatSession) printWelcome() {
	fmt.Fprintln(s.Out, TitleStyle.Render("pai"))
	fmt.Fprintf(s.Out, "%s %s\n", DimStyle.Render("Model:"), s.Dispatcher.Model())
	if n := s.Dispatcher.Conversation().Len(); n > 0 {
		fmt.Fprintf(s.Out, "%s\n", DimStyle.Render(fmt.Sprintf("Resuming conversation (%d messages)", n)))
	}
	fmt.Fprintln(s.Out, DimStyle.Render("Type /help for commands, /quit or Ctrl+D to exit."))
	fmt.Fprintln(s.Out)
}

func (s *ChatSession) printHelp() {
	fmt.Fprintln(s.Out, "Commands:")
	fmt.Fprintln(s.Out, "  /model [name]   show or switch model")
	fmt.Fprintln(s.Out, "  /history        reprint the conversation")
	fmt.Fprintln(s.Out, "  /help           show this list")
	fmt.Fprintln(s.Out, "  /quit           save and exit")
	fmt.Fprintln(s.Out, "  //text          send a message starting with /")
}

func (s *ChatSession) printReply(r dispatch.Reply) {
	label := BotLabelStyle.Render(model.RoleAssistant.DisplayName() + ":")

	switch {
	case r.Failed():
		fmt.Fprintf(s.Out, "%s %s\n\n", label, ErrorStyle.Render(r.Text))
	case s.Markdown != nil:
		out, err := s.Markdown.Render(r.Text)
		if err != nil {
			out = r.Text
		}
		fmt.Fprintf(s.Out, "%s\n%s\n\n", label, strings.Trim(out, "\n"))
	default:
		fmt.Fprintf(s.Out, "%s %s\n\n", label, r.Text)
	}
}
