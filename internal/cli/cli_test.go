// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/storage"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "flag with value",
			args: []string{"history", "--last", "50"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("last") != "50" {
					t.Errorf("Flag(last) = %q, want %q", p.Flag("last"), "50")
				}
				if p.Positional(0) != "history" {
					t.Errorf("Positional(0) = %q, want history", p.Positional(0))
				}
			},
		},
		{
			name: "flag with equals",
			args: []string{"--url=http://host:11434"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("url") != "http://host:11434" {
					t.Errorf("Flag(url) = %q", p.Flag("url"))
				}
			},
		},
		{
			name:  "declared bool does not eat positional",
			args:  []string{"--json", "history"},
			bools: []string{"json"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
				if p.Positional(0) != "history" {
					t.Errorf("Positional(0) = %q, want history", p.Positional(0))
				}
			},
		},
		{
			name: "undeclared trailing flag is bool",
			args: []string{"chat", "--verbose"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("verbose") {
					t.Error("BoolFlag(verbose) should be true")
				}
			},
		},
		{
			name: "explicit bool value",
			args: []string{"--debug=false"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("debug") {
					t.Error("BoolFlag(debug) should be false")
				}
				if !p.HasFlag("debug") {
					t.Error("HasFlag(debug) should be true")
				}
			},
		},
		{
			name: "short flag",
			args: []string{"-m", "phi3"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("m") != "phi3" {
					t.Errorf("Flag(m) = %q, want phi3", p.Flag("m"))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagHelpers(t *testing.T) {
	p := NewArgParser([]string{"--last", "x"})

	if got := p.FlagOrDefault("missing", "dflt"); got != "dflt" {
		t.Errorf("FlagOrDefault = %q, want dflt", got)
	}
	if _, err := p.FlagInt("last"); err == nil {
		t.Error("FlagInt(last) should fail for non-integer")
	}
	if _, err := p.FlagInt("missing"); err == nil {
		t.Error("FlagInt(missing) should fail")
	}
	if p.Positional(5) != "" {
		t.Error("Positional out of range should be empty")
	}
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10", 10, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseIntWithValidation(tt.in, "n")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntWithValidation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseIntWithValidation(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args", nil, CmdTUI},
		{"tui", []string{"tui"}, CmdTUI},
		{"chat", []string{"chat"}, CmdChat},
		{"chat uppercase", []string{"CHAT"}, CmdChat},
		{"history", []string{"history"}, CmdHistory},
		{"export", []string{"export"}, CmdExport},
		{"version", []string{"version"}, CmdVersion},
		{"--version", []string{"--version"}, CmdVersion},
		{"-v", []string{"-v"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"-h", []string{"-h"}, CmdHelp},
		{"debug before command", []string{"--debug", "chat"}, CmdChat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := Parse(tt.argv)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.argv, err)
			}
			if cmd != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.argv, cmd, tt.want)
			}
		})
	}
}

func TestParse_GlobalFlags(t *testing.T) {
	cmd, args, err := Parse([]string{"chat", "--model", "mistral", "--url=http://gpu:11434", "--history", "h.json", "--config", "c.toml", "--debug"})
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if cmd != CmdChat {
		t.Errorf("cmd = %v, want chat", cmd)
	}
	want := Args{
		Model:       "mistral",
		OllamaURL:   "http://gpu:11434",
		HistoryFile: "h.json",
		ConfigPath:  "c.toml",
		Debug:       true,
	}
	if args != want {
		t.Errorf("args = %+v, want %+v", args, want)
	}

	_, args, err = Parse([]string{"-m", "phi3"})
	if err != nil || args.Model != "phi3" {
		t.Errorf("-m: args.Model = %q, err = %v", args.Model, err)
	}
}

func TestParse_HistoryFlags(t *testing.T) {
	cmd, args, err := Parse([]string{"history", "--json", "--last", "4"})
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if cmd != CmdHistory || !args.JSON || args.Last != 4 {
		t.Errorf("got cmd=%v args=%+v", cmd, args)
	}
}

func TestParse_ExportFlags(t *testing.T) {
	cmd, args, err := Parse([]string{"export", "--format", "json", "-o", "out"})
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if cmd != CmdExport || args.Format != "json" || args.OutputDir != "out" {
		t.Errorf("got cmd=%v args=%+v", cmd, args)
	}

	_, args, err = Parse([]string{"export"})
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if args.Format != "markdown" || args.OutputDir != "." {
		t.Errorf("defaults: got %+v", args)
	}
}

func TestParse_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantMsg string
	}{
		{"unknown command", []string{"serve"}, "unknown command"},
		{"extra positional", []string{"chat", "now"}, "unexpected argument"},
		{"unknown flag", []string{"chat", "--turbo"}, "unknown flag --turbo"},
		{"history flag on chat", []string{"chat", "--json"}, "unknown flag --json"},
		{"missing value", []string{"chat", "--model"}, "requires a value"},
		{"bad last", []string{"history", "--last", "0"}, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.argv)
			if err == nil {
				t.Fatalf("Parse(%v) should fail", tt.argv)
			}
			var usageErr *UsageError
			if !errors.As(err, &usageErr) {
				t.Errorf("error %T is not a *UsageError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestArgs_Apply(t *testing.T) {
	cfg := config.Default()
	Args{}.Apply(cfg)
	if *cfg != *config.Default() {
		t.Error("empty Args should not change config")
	}

	Args{Model: "phi3", OllamaURL: "http://x:1", HistoryFile: "h.json", Debug: true}.Apply(cfg)
	if cfg.Model != "phi3" || cfg.OllamaURL != "http://x:1" || cfg.HistoryFile != "h.json" || !cfg.Debug {
		t.Errorf("Apply did not override: %+v", cfg)
	}
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	if !strings.Contains(buf.String(), "pai history") {
		t.Error("usage should list the history command")
	}
	if !strings.Contains(buf.String(), Version) {
		t.Error("usage should include the version")
	}

	buf.Reset()
	PrintVersion(&buf)
	if !strings.HasPrefix(buf.String(), "pai version "+Version) {
		t.Errorf("PrintVersion = %q", buf.String())
	}
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", NewUsageError("bad"), ExitUsageError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "model", Message: "empty"}}), ExitConfigError},
		{"missing history", fmt.Errorf("h.json: %w", storage.ErrHistoryNotFound), ExitNotFoundError},
		{"ollama down", ollama.ErrNotRunning, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, NewUsageError("unknown command \"x\""))
	out := buf.String()
	if !strings.Contains(out, "unknown command") || !strings.Contains(out, "pai help") {
		t.Errorf("DisplayError output = %q", out)
	}

	buf.Reset()
	DisplayError(&buf, nil)
	if buf.Len() != 0 {
		t.Error("DisplayError(nil) should write nothing")
	}
}

// =============================================================================
// TERMINAL TESTS (terminal.go)
// =============================================================================

func TestWantColor(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}
	tests := []struct {
		name string
		vars map[string]string
		tty  bool
		want bool
	}{
		{"tty", nil, true, true},
		{"pipe", nil, false, false},
		{"no color on tty", map[string]string{"NO_COLOR": "1"}, true, false},
		{"force color on pipe", map[string]string{"FORCE_COLOR": "1"}, false, true},
		{"no color beats force", map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wantColor(env(tt.vars), tt.tty); got != tt.want {
				t.Errorf("wantColor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampReplyWidth(t *testing.T) {
	for in, want := range map[int]int{10: 36, 36: 36, 80: 80, 116: 116, 300: 116} {
		if got := clampReplyWidth(in); got != want {
			t.Errorf("clampReplyWidth(%d) = %d, want %d", in, got, want)
		}
	}
}
