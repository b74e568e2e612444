// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch runs chat requests off the UI loop and hands the results
// back through a queue.
//
// # Key Types
//
//   - Dispatcher: one submit, one background completion call, one Reply
//   - Queue: unbounded single-producer single-consumer FIFO of Replies
//   - Reply: text to render, tagged with its request ID and any error
//
// # Flow
//
//	submit -> Dispatcher (goroutine) -> Completer.Chat -> Queue.Push
//	UI tick -> Queue.Drain -> transcript
//
// The dispatcher holds at most one request. A second Submit while one is
// outstanding returns ErrBusy; callers are expected to disable their input
// until Busy reports false again.
package dispatch
