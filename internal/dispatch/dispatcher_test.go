// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/ollama"
)

// fakeCompleter answers with reply or err. When gate is non-nil each call
// blocks until gate is closed.
type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]ollama.Message
	model []string
	reply string
	err   error
	gate  chan struct{}
}

func (f *fakeCompleter) Chat(ctx context.Context, modelName string, messages []ollama.Message) (*ollama.ChatResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.model = append(f.model, modelName)
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.ChatResponse{Message: ollama.NewAssistantMessage(f.reply)}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestDispatcher(c Completer, history ...model.Message) *Dispatcher {
	return New(model.NewConversation(history), c, NewQueue(), "llama3")
}

// waitReplies drains the queue until n replies have arrived.
func waitReplies(t *testing.T, q *Queue, n int) []Reply {
	t.Helper()
	var got []Reply
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case <-q.Ready():
			got = append(got, q.Drain()...)
		case <-deadline:
			t.Fatalf("timed out waiting for %d replies (got %d)", n, len(got))
		}
	}
	return got
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_EmptyInputIsNoop(t *testing.T) {
	fake := &fakeCompleter{reply: "unused"}
	d := newTestDispatcher(fake, model.NewUserMessage("earlier"))

	for _, input := range []string{"", " ", "\t\n  ", "\u00a0"} {
		_, err := d.Submit(input)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", input)
	}

	assert.Equal(t, 1, d.Conversation().Len())
	assert.Equal(t, 0, d.Queue().Len())
	assert.Equal(t, 0, fake.callCount())
	assert.Equal(t, StateIdle, d.State())
}

func TestSubmit_Success(t *testing.T) {
	fake := &fakeCompleter{reply: "Hi there"}
	d := newTestDispatcher(fake)

	id, err := d.Submit("  Hello  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	replies := waitReplies(t, d.Queue(), 1)
	d.Wait()

	require.Len(t, replies, 1)
	assert.Equal(t, "Hi there", replies[0].Text)
	assert.Equal(t, id, replies[0].RequestID)
	assert.False(t, replies[0].Failed())

	assert.Equal(t, []model.Message{
		model.NewUserMessage("Hello"),
		model.NewAssistantMessage("Hi there"),
	}, d.Conversation().Messages())

	// Displayed exactly once
	assert.Nil(t, d.Queue().Drain())
	assert.Equal(t, StateIdle, d.State())
}

func TestSubmit_SendsFullConversation(t *testing.T) {
	fake := &fakeCompleter{reply: "4"}
	d := newTestDispatcher(fake,
		model.NewUserMessage("what is 1+1"),
		model.NewAssistantMessage("2"),
	)
	d.SetModel("mistral")

	_, err := d.Submit("and 2+2?")
	require.NoError(t, err)
	waitReplies(t, d.Queue(), 1)
	d.Wait()

	require.Equal(t, 1, fake.callCount())
	assert.Equal(t, []ollama.Message{
		ollama.NewUserMessage("what is 1+1"),
		ollama.NewAssistantMessage("2"),
		ollama.NewUserMessage("and 2+2?"),
	}, fake.calls[0])
	assert.Equal(t, "mistral", fake.model[0])
}

func TestSubmit_FailureKeepsOnlyUserTurn(t *testing.T) {
	fake := &fakeCompleter{err: ollama.ErrNotRunning}
	d := newTestDispatcher(fake, model.NewUserMessage("a"), model.NewAssistantMessage("b"))

	_, err := d.Submit("Hello")
	require.NoError(t, err)

	replies := waitReplies(t, d.Queue(), 1)
	d.Wait()

	require.Len(t, replies, 1)
	assert.True(t, replies[0].Failed())
	assert.ErrorIs(t, replies[0].Err, ollama.ErrNotRunning)
	assert.Equal(t, "Error: Ollama is not running", replies[0].Text)

	msgs := d.Conversation().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.NewUserMessage("Hello"), msgs[2])
	assert.Equal(t, StateIdle, d.State())
}

func TestSubmit_RejectedWhileBusy(t *testing.T) {
	fake := &fakeCompleter{reply: "first", gate: make(chan struct{})}
	d := newTestDispatcher(fake)

	_, err := d.Submit("one")
	require.NoError(t, err)
	assert.True(t, d.Busy())
	assert.Equal(t, StateSending, d.State())

	_, err = d.Submit("two")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, d.Conversation().Len(), "rejected submit must not touch the conversation")

	close(fake.gate)
	replies := waitReplies(t, d.Queue(), 1)
	d.Wait()

	assert.Equal(t, "first", replies[0].Text)
	assert.False(t, d.Busy())
	assert.Equal(t, 1, fake.callCount())

	// Idle again: a new submit goes through
	fake.gate = nil
	_, err = d.Submit("three")
	require.NoError(t, err)
	waitReplies(t, d.Queue(), 1)
	d.Wait()
	assert.Equal(t, 4, d.Conversation().Len())
}

func TestSubmit_RepliesInSubmissionOrder(t *testing.T) {
	fake := &fakeCompleter{}
	d := newTestDispatcher(fake)

	var want []string
	for _, text := range []string{"a", "b", "c"} {
		fake.reply = "re: " + text
		want = append(want, fake.reply)
		_, err := d.Submit(text)
		require.NoError(t, err)
		d.Wait()
	}

	var got []string
	for _, r := range d.Queue().Drain() {
		got = append(got, r.Text)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 6, d.Conversation().Len())
}

func TestSubmit_NilClient(t *testing.T) {
	d := New(model.NewConversation(nil), nil, NewQueue(), "")

	_, err := d.Submit("Hello")
	require.NoError(t, err)
	replies := waitReplies(t, d.Queue(), 1)
	d.Wait()

	assert.True(t, replies[0].Failed())
	assert.Equal(t, 1, d.Conversation().Len())
}

func TestSubmit_KeepsUserBytes(t *testing.T) {
	fake := &fakeCompleter{reply: "ok"}
	d := newTestDispatcher(fake)

	// "e" + combining acute accent stays decomposed; only outer space is trimmed
	_, err := d.Submit("  cafe\u0301 ")
	require.NoError(t, err)
	waitReplies(t, d.Queue(), 1)
	d.Wait()

	assert.Equal(t, "cafe\u0301", d.Conversation().Messages()[0].Content)
}

// TestSubmit_AgainstHTTPServer runs a round trip through the real client.
func TestSubmit_AgainstHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hi there"},"done":true}`))
	}))
	defer server.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: server.URL})
	d := New(model.NewConversation(nil), client, NewQueue(), "")

	_, err := d.Submit("Hello")
	require.NoError(t, err)
	replies := waitReplies(t, d.Queue(), 1)
	d.Wait()

	assert.Equal(t, "Hi there", replies[0].Text)
	assert.Equal(t, 2, d.Conversation().Len())
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Error: boom", ErrorText(errors.New("boom")))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "sending", StateSending.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestSubmit_LogsGenerationStats(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hi"},"done":true,` +
			`"total_duration":3000000000,"eval_count":50,"eval_duration":2000000000}`))
	}))
	defer server.Close()

	d := newTestDispatcher(ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: server.URL}))
	_, err := d.Submit("Hello")
	require.NoError(t, err)
	waitReplies(t, d.Queue(), 1)
	d.Wait()

	out := buf.String()
	assert.Contains(t, out, "REQUEST_COMPLETE")
	assert.Contains(t, out, "total_time=3s")
	assert.Contains(t, out, "tokens_per_sec=25.0")
}
