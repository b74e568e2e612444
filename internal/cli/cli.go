// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/jeranaias/pai/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdHistory
	CmdExport
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdExport:
		return "export"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model       string
	OllamaURL   string
	HistoryFile string
	ConfigPath  string
	Debug       bool

	// history
	JSON bool
	Last int

	// export
	Format    string
	OutputDir string
}

// Apply overrides cfg with every flag that was given.
func (a Args) Apply(cfg *config.Config) {
	if a.Model != "" {
		cfg.Model = a.Model
	}
	if a.OllamaURL != "" {
		cfg.OllamaURL = a.OllamaURL
	}
	if a.HistoryFile != "" {
		cfg.HistoryFile = a.HistoryFile
	}
	if a.Debug {
		cfg.Debug = true
	}
}

const usageText = `pai - chat with a local Ollama model from the terminal

Usage:
  pai [flags]                 Start the chat window (default)
  pai chat [flags]            Line-mode chat on stdin/stdout
  pai history [--json] [--last N]
                              Print the saved conversation
  pai export [--format markdown|json] [--output DIR]
                              Write the conversation to a file
  pai version                 Show version information
  pai help                    Show this help

Global Flags:
  -m, --model NAME            Model to chat with (default: llama3)
  --url URL                   Ollama base URL (default: http://127.0.0.1:11434)
  --history FILE              Conversation file (default: chat_history.json)
  --config FILE               Config file (default: ~/.pai/config.toml)
  --debug                     Write a debug log (default file: pai.log)

Environment:
  PAI_MODEL, PAI_OLLAMA_URL, PAI_HISTORY_FILE, PAI_POLL_INTERVAL_MS, PAI_DEBUG
  are read from the environment and from a .env file in the working directory.

Keys (chat window):
  Enter       send             Ctrl+Y      copy last reply
  Esc/Ctrl+C  save and quit    PgUp/PgDn   scroll

Line-mode commands:
  /model [name]   show or switch model
  /history        reprint the conversation
  /help           show commands
  /quit           save and exit (also Ctrl+D)
  //text          send a message that starts with /

Version: %s
`

// PrintUsage writes the usage/help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "pai version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// boolFlagNames never take a value.
var boolFlagNames = []string{"debug", "json", "help", "h", "version", "v"}

// knownFlags lists every accepted flag per command. Globals apply to all.
var (
	globalFlags  = []string{"model", "m", "url", "history", "config", "debug", "help", "h", "version", "v"}
	historyFlags = []string{"json", "last"}
	exportFlags  = []string{"format", "output", "o"}
)

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlagNames...)

	args := Args{
		Model:       p.FlagOrDefault("model", p.Flag("m")),
		OllamaURL:   p.Flag("url"),
		HistoryFile: p.Flag("history"),
		ConfigPath:  p.Flag("config"),
		Debug:       p.BoolFlag("debug"),
	}

	// Flags that need a value but were given none parse as bool.
	for _, name := range []string{"model", "m", "url", "history", "config", "last", "format", "output", "o"} {
		if p.BoolFlag(name) {
			return CmdHelp, args, NewUsageError(fmt.Sprintf("flag --%s requires a value", name))
		}
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") || p.BoolFlag("v") {
		return CmdVersion, args, nil
	}

	cmd := CmdTUI
	allowed := globalFlags
	switch name := strings.ToLower(p.Positional(0)); name {
	case "", "tui":
		cmd = CmdTUI
	case "chat":
		cmd = CmdChat
	case "history":
		cmd = CmdHistory
		allowed = append(append([]string{}, globalFlags...), historyFlags...)
		args.JSON = p.BoolFlag("json")
		if p.HasFlag("last") {
			n, err := ParseIntWithValidation(p.Flag("last"), "--last")
			if err != nil {
				return CmdHelp, args, NewUsageError(err.Error())
			}
			args.Last = n
		}
	case "export":
		cmd = CmdExport
		allowed = append(append([]string{}, globalFlags...), exportFlags...)
		args.Format = p.FlagOrDefault("format", "markdown")
		args.OutputDir = p.FlagOrDefault("output", p.FlagOrDefault("o", "."))
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, NewUsageError(fmt.Sprintf("unknown command %q", name))
	}

	if p.PositionalCount() > 1 {
		return CmdHelp, args, NewUsageError(fmt.Sprintf("unexpected argument %q", p.Positional(1)))
	}
	if unknown := unknownFlags(p, allowed); len(unknown) > 0 {
		return CmdHelp, args, NewUsageError("unknown flag --" + strings.Join(unknown, ", --"))
	}

	return cmd, args, nil
}

func unknownFlags(p *ArgParser, allowed []string) []string {
	ok := make(map[string]bool, len(allowed))
	for _, n := range allowed {
		ok[n] = true
	}
	var unknown []string
	for _, n := range p.Flags() {
		if !ok[n] {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	return unknown
}
