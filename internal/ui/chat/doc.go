// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat window for pai.

# Layout

From top to bottom: a header with the title and model name, a read-only
transcript in a viewport, a single-line input, and a status line with the
Ollama connection state and key hints.

# Request Flow

Enter hands the input text to a dispatch.Dispatcher, which appends the user
turn and runs the request on its own goroutine. The App never blocks on the
network. A PollTickMsg fires every poll interval; each tick drains the
dispatch.Queue and appends the replies to the transcript in arrival order,
then re-arms itself.

While a request is outstanding the input is blurred and Enter is ignored.
It is re-enabled on the first tick that finds the dispatcher idle, which is
always after that request's reply has been drained.

# Quitting

Esc and Ctrl+C save the conversation through the HistoryStore before the
program exits. The App records that it saved so the caller can skip a
second save.
*/
package chat
