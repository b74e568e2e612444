// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/storage"
)

// HandleHistory prints the saved conversation. With JSON set the file is
// printed as stored, syntax highlighted when color is true.
func HandleHistory(w io.Writer, store *storage.HistoryStore, args Args, color bool) error {
	if args.JSON {
		data, err := store.ReadRaw()
		if err != nil {
			return fmt.Errorf("%s: %w", store.Path, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s: history file is not valid JSON", store.Path)
		}
		return highlightJSON(w, string(data), color)
	}

	msgs, err := store.LoadStrict()
	if err != nil {
		return fmt.Errorf("%s: %w", store.Path, err)
	}
	if args.Last > 0 && args.Last < len(msgs) {
		msgs = msgs[len(msgs)-args.Last:]
	}
	if len(msgs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(empty conversation)"))
		return nil
	}
	PrintConversation(w, msgs)
	return nil
}

// PrintConversation writes msgs as "You: ..." / "Bot: ..." blocks.
func PrintConversation(w io.Writer, msgs []model.Message) {
	for _, m := range msgs {
		label := m.Role.DisplayName() + ":"
		switch m.Role {
		case model.RoleUser:
			label = UserLabelStyle.Render(label)
		case model.RoleAssistant:
			label = BotLabelStyle.Render(label)
		}
		fmt.Fprintf(w, "%s %s\n\n", label, m.Content)
	}
}

// highlightJSON writes src through chroma. Without color the noop formatter
// passes the text through unchanged.
func highlightJSON(w io.Writer, src string, color bool) error {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("noop")
	if color {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return fmt.Errorf("failed to tokenise history: %w", err)
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return err
	}
	if len(src) > 0 && src[len(src)-1] != '\n' {
		fmt.Fprintln(w)
	}
	return nil
}
