// pai - chat with a local Ollama model from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pai/internal/cli"
	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/dispatch"
	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/storage"
	"github.com/jeranaias/pai/internal/ui/chat"
	"github.com/jeranaias/pai/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.GetExitCode(err)
	}

	closeLog := setupLogging(cfg)
	defer closeLog()

	store := storage.NewHistoryStore(cfg.HistoryFile)

	switch cmd {
	case cli.CmdHistory:
		err = cli.HandleHistory(os.Stdout, store, args, cli.ColorsEnabled())
	case cli.CmdExport:
		err = cli.HandleExport(os.Stdout, store, args, cfg.Model)
	case cli.CmdChat:
		err = runChat(cfg, store)
	default:
		if cli.CanRunTUI() {
			err = runTUI(cfg, args, store)
		} else {
			log.Printf("STARTUP | mode=line reason=not_a_tty")
			err = runChat(cfg, store)
		}
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(args cli.Args) (*config.Config, error) {
	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return nil, err
	}
	args.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// setupLogging sends the std logger to cfg.LogFile when debugging and
// discards it otherwise. The terminal belongs to the UI.
func setupLogging(cfg *config.Config) func() {
	if !cfg.Debug {
		log.SetOutput(io.Discard)
		return func() {}
	}

	f, err := tea.LogToFile(cfg.LogFile, "pai")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open log file %s: %v\n", cfg.LogFile, err)
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("STARTUP | version=%s model=%s url=%s history=%s", Version, cfg.Model, cfg.OllamaURL, cfg.HistoryFile)
	return func() { f.Close() }
}

func newClient(cfg *config.Config) *ollama.Client {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.OllamaURL,
		DefaultModel: cfg.Model,
	})
	log.Printf("OLLAMA_CLIENT | url=%s model=%s", client.BaseURL(), client.GetDefaultModel())
	return client
}

// =============================================================================
// TUI MODE
// =============================================================================

func runTUI(cfg *config.Config, args cli.Args, store *storage.HistoryStore) error {
	client := newClient(cfg)
	conv := model.NewConversation(store.Load())
	d := dispatch.New(conv, client, dispatch.NewQueue(), client.GetDefaultModel())

	app := chat.New(chat.Options{
		Dispatcher: d,
		Store:      store,
		Checker:    client,
		Config:     cfg,
		Theme:      styles.NewTheme(cfg.UI.Theme),
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	if w := watchConfig(args, func(c *config.Config) {
		args.Apply(c)
		p.Send(chat.ConfigReloaded(c))
	}); w != nil {
		defer w.Close()
	}

	final, runErr := p.Run()

	// The App saves on quit; save here when it did not get the chance.
	if app, ok := final.(chat.App); !ok || !app.Saved() {
		log.Printf("SHUTDOWN | fallback_save=true")
		_ = store.Save(conv.Messages())
	}

	if runErr != nil {
		return fmt.Errorf("error running pai: %w", runErr)
	}
	return nil
}

// watchConfig starts a reload watcher when a config file exists.
func watchConfig(args cli.Args, onChange func(*config.Config)) *config.Watcher {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.Watch(path, onChange)
	if err != nil {
		log.Printf("CONFIG_WATCH_ERROR | path=%s error=%v", path, err)
		return nil
	}
	return w
}

// =============================================================================
// LINE MODE
// =============================================================================

func runChat(cfg *config.Config, store *storage.HistoryStore) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(cfg)
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.CheckRunning(checkCtx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.DimStyle.Render("Warning:"), err)
	}
	cancel()

	conv := model.NewConversation(store.Load())
	input := cli.NewChatCLI()
	defer input.Close()

	session := &cli.ChatSession{
		Dispatcher: dispatch.New(conv, client, dispatch.NewQueue(), client.GetDefaultModel()),
		Store:      store,
		Input:      input,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Quiet:      !cli.IsStdoutTTY(),
	}
	if cfg.UI.Markdown && cli.IsStdoutTTY() {
		if md, err := cli.NewMarkdownRenderer(cli.ReplyWidth()); err == nil {
			session.Markdown = md
		}
	}

	return session.Run(ctx)
}
