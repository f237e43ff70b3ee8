package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle tracks one asynchronous job. Events are queued without bound so a
// slow consumer never stalls the worker, and a consumer that subscribes
// late still sees every event from the first one.
type Handle[T any] struct {
	id string
	op Operation

	mu      sync.Mutex
	queue   []Event
	seq     int
	percent int
	closed  bool
	notify  chan struct{}

	done  chan struct{}
	value T
	err   error

	eventsOnce sync.Once
	events     chan Event
}

func newHandle[T any](op Operation) *Handle[T] {
	return &Handle[T]{
		id:     uuid.NewString(),
		op:     op,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// ID returns the job's unique identifier.
func (h *Handle[T]) ID() string { return h.id }

// Operation returns what the job does.
func (h *Handle[T]) Operation() Operation { return h.op }

// Done is closed once the job has finished and its result is available.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks until the job finishes and returns its outcome.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.value, h.err
}

// Events returns the job's event stream. The channel is closed after the
// terminal event. Callers should drain it; every call returns the same
// channel.
func (h *Handle[T]) Events() <-chan Event {
	h.eventsOnce.Do(func() {
		h.events = make(chan Event)
		go h.forward()
	})
	return h.events
}

func (h *Handle[T]) forward() {
	defer close(h.events)
	for {
		h.mu.Lock()
		if len(h.queue) > 0 {
			ev := h.queue[0]
			h.queue = h.queue[1:]
			h.mu.Unlock()
			h.events <- ev
			continue
		}
		closed := h.closed
		h.mu.Unlock()
		if closed {
			return
		}
		<-h.notify
	}
}

// progress queues a progress event. Percents never go backwards.
func (h *Handle[T]) progress(percent int, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	percent = clampPercent(percent)
	if percent < h.percent {
		percent = h.percent
	}
	h.percent = percent
	h.push(KindProgress, percent, message)
}

// finish records the outcome and queues the terminal event. Only the first
// call has any effect.
func (h *Handle[T]) finish(value T, summary string, err error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.value, h.err = value, err
	if err != nil {
		h.push(KindFailed, h.percent, Reason(err))
	} else {
		h.percent = 100
		h.push(KindSucceeded, 100, summary)
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
}

// push must be called with mu held.
func (h *Handle[T]) push(kind Kind, percent int, message string) {
	h.seq++
	h.queue = append(h.queue, Event{
		Seq:       h.seq,
		JobID:     h.id,
		Operation: h.op,
		Kind:      kind,
		Percent:   percent,
		Message:   message,
		Time:      time.Now(),
	})
	select {
	case h.notify <- struct{}{}:
	default:
	}
}
