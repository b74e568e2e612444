// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/util"
)

// Submit rejections. Neither touches the conversation or the queue.
var (
	ErrEmptyInput = errors.New("empty message")
	ErrBusy       = errors.New("a request is already in flight")
)

// Completer is the external completion service.
type Completer interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (*ollama.ChatResponse, error)
}

// =============================================================================
// REQUEST STATE
// =============================================================================

// State is where the dispatcher is in its Idle -> Sending -> Idle cycle.
type State int

const (
	StateIdle    State = iota // Ready for a submit
	StateSending              // Waiting on the completion service
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher turns one line of user text into one round trip with the
// completion service and hands the outcome to the display through a Queue.
//
// Only one request is ever outstanding. The user turn is appended before
// the call; the assistant turn only on success. A failed exchange therefore
// leaves the user turn in the history with no reply after it.
type Dispatcher struct {
	conv   *model.Conversation
	client Completer
	queue  *Queue

	mu        sync.Mutex
	state     State
	modelName string
	wg        sync.WaitGroup
}

// New creates a dispatcher that appends to conv, asks client, and delivers
// to queue. modelName may be empty to use the client's default.
func New(conv *model.Conversation, client Completer, queue *Queue, modelName string) *Dispatcher {
	d := &Dispatcher{
		conv:   conv,
		client: client,
		queue:  queue,
	}
	d.SetModel(modelName)
	return d
}

// SetModel changes the model used by the next request.
func (d *Dispatcher) SetModel(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modelName = name
}

// Model returns the model the next request will ask for.
func (d *Dispatcher) Model() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modelName
}

// State returns the current request state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Busy reports whether a request is outstanding.
func (d *Dispatcher) Busy() bool {
	return d.State() == StateSending
}

// Queue returns the queue replies are delivered to.
func (d *Dispatcher) Queue() *Queue {
	return d.queue
}

// Conversation returns the conversation the dispatcher appends to.
func (d *Dispatcher) Conversation() *model.Conversation {
	return d.conv
}

// Submit appends text as a user turn and starts the request on its own
// goroutine. It returns immediately. Whitespace-only text is rejected with
// ErrEmptyInput and a submit during an outstanding request with ErrBusy.
func (d *Dispatcher) Submit(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	d.mu.Lock()
	if d.state == StateSending {
		d.mu.Unlock()
		return "", ErrBusy
	}
	d.state = StateSending
	modelName := d.modelName
	d.mu.Unlock()

	d.conv.Append(model.NewUserMessage(text))
	history := toOllama(d.conv.Messages())

	id := uuid.NewString()
	log.Printf("REQUEST_START | id=%s model=%s turns=%d text=%q", id, modelName, len(history), util.Preview(text, 40))

	d.wg.Add(1)
	go d.run(id, modelName, history)

	return id, nil
}

// run performs the blocking call. No deadline is imposed here; the request
// lasts as long as the client allows.
func (d *Dispatcher) run(id, modelName string, history []ollama.Message) {
	defer d.wg.Done()

	start := time.Now()
	reply, resp := d.complete(id, modelName, history)
	if reply.Failed() {
		log.Printf("REQUEST_ERROR | id=%s latency=%dms error=%v", id, time.Since(start).Milliseconds(), reply.Err)
	} else {
		log.Printf("REQUEST_COMPLETE | id=%s latency=%dms total_time=%s tokens_per_sec=%.1f text=%q",
			id, time.Since(start).Milliseconds(), resp.TotalTime(), resp.TokensPerSecond(), util.Preview(reply.Text, 40))
	}

	// Enqueue before going idle so a consumer that sees Idle has already
	// been handed the reply.
	d.queue.Push(reply)

	d.mu.Lock()
	d.state = StateIdle
	d.mu.Unlock()
}

// complete returns the reply to enqueue and, on success, the raw response.
func (d *Dispatcher) complete(id, modelName string, history []ollama.Message) (Reply, *ollama.ChatResponse) {
	if d.client == nil {
		return Reply{RequestID: id, Text: ErrorText(ollama.ErrNotRunning), Err: ollama.ErrNotRunning}, nil
	}

	resp, err := d.client.Chat(context.Background(), modelName, history)
	if err == nil && resp == nil {
		err = ollama.ErrInvalidResponse
	}
	if err != nil {
		return Reply{RequestID: id, Text: ErrorText(err), Err: err}, nil
	}

	d.conv.Append(model.NewAssistantMessage(resp.Message.Content))
	return Reply{RequestID: id, Text: resp.Message.Content}, resp
}

// Wait blocks until the outstanding request, if any, has delivered its reply.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// ErrorText is the transcript line shown in place of a reply.
func ErrorText(err error) string {
	return "Error: " + err.Error()
}

func toOllama(msgs []model.Message) []ollama.Message {
	out := make([]ollama.Message, len(msgs))
	for i, m := range msgs {
		out[i] = ollama.Message{Role: m.Role.String(), Content: m.Content}
	}
	return out
}
