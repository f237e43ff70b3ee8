package jobs

import (
	"errors"
	"testing"
)

func TestHandlePercentsNeverDecrease(t *testing.T) {
	h := newHandle[string](OpSynthesis)
	h.progress(40, "a")
	h.progress(20, "b")
	h.progress(150, "c")
	h.finish("done", "ok", nil)

	events := collect(t, h)
	checkStream(t, events)
	want := []int{40, 40, 100, 100}
	for i, ev := range events {
		if ev.Percent != want[i] {
			t.Errorf("event %d percent = %d, want %d", i, ev.Percent, want[i])
		}
		if ev.JobID != h.ID() || ev.Operation != OpSynthesis {
			t.Errorf("event %d mislabelled: %+v", i, ev)
		}
	}
}

func TestHandleFailureKeepsLastPercent(t *testing.T) {
	h := newHandle[int](OpEnrollment)
	h.progress(55, "polling")
	h.finish(0, "", NewError(CodeTimeout, "gave up", nil))

	events := collect(t, h)
	last := events[len(events)-1]
	if last.Kind != KindFailed || last.Percent != 55 || last.Message != "gave up" {
		t.Errorf("terminal = %+v", last)
	}
}

func TestHandleFinishOnce(t *testing.T) {
	h := newHandle[string](OpListing)
	h.finish("first", "one", nil)
	h.finish("second", "two", errors.New("late"))
	h.progress(50, "after terminal")

	v, err := h.Wait()
	if v != "first" || err != nil {
		t.Errorf("Wait = %q, %v", v, err)
	}
	if events := collect(t, h); len(events) != 1 {
		t.Errorf("got %d events, want only the terminal one", len(events))
	}
}

func TestHandleLateSubscriberSeesHistory(t *testing.T) {
	h := newHandle[string](OpListing)
	for i := 0; i < 100; i++ {
		h.progress(i, "step")
	}
	h.finish("", "done", nil)

	<-h.Done()
	events := collect(t, h)
	if len(events) != 101 {
		t.Errorf("got %d events, want 101", len(events))
	}
	if h.Events() != h.Events() {
		t.Error("Events should return the same channel")
	}
}

func TestHandleIDsAreUnique(t *testing.T) {
	a, b := newHandle[int](OpListing), newHandle[int](OpListing)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q and %q", a.ID(), b.ID())
	}
}
