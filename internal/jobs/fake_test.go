package jobs

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/remote"
)

// fakeClient is a scriptable remote.Client. Unset hooks succeed with
// empty results.
type fakeClient struct {
	mu sync.Mutex

	list   func(page, size int) (remote.Response, error)
	create func(req remote.CreateVoiceRequest) (string, error)
	query  func(id string, attempt int) (remote.Response, error)
	del    func(id string) error
	synth  func(p remote.SynthesisParams) (remote.Response, error)

	listCalls  []int
	creates    []remote.CreateVoiceRequest
	queries    int
	deleted    []string
	synthCalls int
}

func (f *fakeClient) ListVoices(_ context.Context, page, size int) (remote.Response, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, page)
	fn := f.list
	f.mu.Unlock()
	if fn == nil {
		return []any{}, nil
	}
	return fn(page, size)
}

func (f *fakeClient) CreateVoice(_ context.Context, req remote.CreateVoiceRequest) (string, error) {
	f.mu.Lock()
	f.creates = append(f.creates, req)
	fn := f.create
	f.mu.Unlock()
	if fn == nil {
		return "cosyvoice-v2-" + req.Prefix + "-0001", nil
	}
	return fn(req)
}

func (f *fakeClient) QueryVoice(_ context.Context, id string) (remote.Response, error) {
	f.mu.Lock()
	f.queries++
	n := f.queries
	fn := f.query
	f.mu.Unlock()
	if fn == nil {
		return map[string]any{"status": "OK"}, nil
	}
	return fn(id, n)
}

func (f *fakeClient) DeleteVoice(_ context.Context, id string) error {
	f.mu.Lock()
	fn := f.del
	f.mu.Unlock()
	if fn != nil {
		if err := fn(id); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Synthesize(_ context.Context, p remote.SynthesisParams) (remote.Response, error) {
	f.mu.Lock()
	f.synthCalls++
	fn := f.synth
	f.mu.Unlock()
	if fn == nil {
		return []byte("ID3audio"), nil
	}
	return fn(p)
}

func (f *fakeClient) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

// page builds a list response with n voices named from offset.
func page(offset, n int) remote.Response {
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"voice_id": fmt.Sprintf("cosyvoice-v2-v%03d", offset+i),
			"status":   "OK",
		})
	}
	return map[string]any{"output": map[string]any{"voice_list": items}}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// collect drains a handle's events with a timeout.
func collect[T any](t *testing.T, h *Handle[T]) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	ch := h.Events()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events; got %d", len(events))
			return events
		}
	}
}

// checkStream asserts ordering and the single-terminal rule.
func checkStream(t *testing.T, events []Event) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := -1
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Errorf("event %d has seq %d", i, ev.Seq)
		}
		if ev.Percent < last {
			t.Errorf("percent went backwards at event %d: %d < %d", i, ev.Percent, last)
		}
		last = ev.Percent
		if ev.Kind.Terminal() != (i == len(events)-1) {
			t.Errorf("event %d (%s) terminal placement wrong", i, ev.Kind)
		}
	}
}
