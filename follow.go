package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
)

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// follow prints a job's events to w as they arrive and returns its result.
func follow[T any](w io.Writer, h *jobs.Handle[T], quiet bool) (T, error) {
	styled := w == io.Writer(os.Stderr) && isTerminal(os.Stderr)
	for ev := range h.Events() {
		if quiet && !ev.Kind.Terminal() {
			continue
		}
		fmt.Fprintln(w, formatEvent(ev, styled))
	}
	v, err := h.Wait()
	if err != nil {
		logFailure(h.Operation(), err)
	}
	return v, err
}

// logFailure records a failed job's code and context.
func logFailure(op jobs.Operation, err error) {
	log.Debug("job failed", append([]any{"op", op}, jobs.Fields(err)...)...)
}

// retryHint suggests trying again for failures that may pass on their
// own, and is empty otherwise.
func retryHint(err error) string {
	switch {
	case errors.Is(err, jobs.ErrBusy):
		return "Try again once it finishes."
	case jobs.IsRetryable(err):
		return "This may succeed if you try again later."
	}
	return ""
}

// formatEvent renders one event as a single line.
func formatEvent(ev jobs.Event, styled bool) string {
	line := fmt.Sprintf("%3d%% %s", ev.Percent, ev.Message)
	if !styled {
		return fmt.Sprintf("[%s] %s", ev.Operation, line)
	}
	tag := faint.Render("[" + string(ev.Operation) + "]")
	switch ev.Kind {
	case jobs.KindSucceeded:
		return tag + " " + okStyle.Render(line)
	case jobs.KindFailed:
		return tag + " " + errStyle.Render(line)
	default:
		return tag + " " + line
	}
}
