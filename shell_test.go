package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
	"github.com/dgnsrekt/voiceclone/internal/remote/sim"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

// syncBuffer is a bytes.Buffer safe for the shell's background writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// wait blocks until every tracked job and its follow-up has finished.
func (s *shell) wait() {
	s.wg.Wait()
}

func newTestShell(t *testing.T, backend *sim.Backend) (*shell, *syncBuffer) {
	t.Helper()
	c := jobs.New(backend,
		jobs.WithLogger(log.NewWithOptions(io.Discard, log.Options{})),
		jobs.WithPagePause(0),
		jobs.WithPollInterval(time.Millisecond),
		jobs.WithPollAttempts(10),
	)
	out := &syncBuffer{}
	return newShell(c, out, false), out
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"list", []string{"list"}},
		{"  select   abc  ", []string{"select", "abc"}},
		{`synth --out "my file.mp3" hello world`, []string{"synth", "--out", "my file.mp3", "hello", "world"}},
		{`synth 'it is' "quoted"`, []string{"synth", "it is", "quoted"}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		if err != nil {
			t.Fatalf("splitArgs(%q) error = %v", tt.line, err)
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitArgs(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestResolveVoice(t *testing.T) {
	records := []voice.Record{
		voice.NewRecord("cosyvoice-v2-alice-1a2b3c4d", "OK"),
		voice.NewRecord("cosyvoice-v2-bob-9f8e7d6c", "OK"),
		voice.NewRecord("cosyvoice-v3-plus-carol-00aa11bb", "OK"),
	}

	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{"cosyvoice-v2-bob-9f8e7d6c", "cosyvoice-v2-bob-9f8e7d6c", false},
		{"carol", "cosyvoice-v3-plus-carol-00aa11bb", false},
		{"alice", "cosyvoice-v2-alice-1a2b3c4d", false},
		{"zzzzzz", "zzzzzz", false},
	}
	for _, tt := range tests {
		got, err := resolveVoice(tt.query, records)
		if (err != nil) != tt.wantErr {
			t.Fatalf("resolveVoice(%q) error = %v", tt.query, err)
		}
		if got != tt.want {
			t.Errorf("resolveVoice(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestResolveVoiceAmbiguous(t *testing.T) {
	records := []voice.Record{
		voice.NewRecord("voice-a1", "OK"),
		voice.NewRecord("voice-a2", "OK"),
	}
	if _, err := resolveVoice("voice-a", records); err == nil {
		t.Error("expected an ambiguity error")
	}
}

func TestShellSession(t *testing.T) {
	backend := sim.New(sim.Config{TrainingPolls: 1, Shape: sim.ShapeMixed})
	s, out := newTestShell(t, backend)

	if err := s.exec("enroll --url https://example.com/a.wav --prefix alice --model cosyvoice-v2"); err != nil {
		t.Fatal(err)
	}
	s.wait()

	snap := s.c.Catalog()
	if len(snap.Records) != 1 || snap.Records[0].Status != voice.StatusReady {
		t.Fatalf("catalog after enrollment = %+v", snap.Records)
	}

	if err := s.exec("select alice"); err != nil {
		t.Fatal(err)
	}
	sel, ok := s.c.Selection()
	if !ok || sel.Model != voice.ModelV2 {
		t.Fatalf("selection = %+v, %v", sel, ok)
	}

	dest := filepath.Join(t.TempDir(), "out", "hello.mp3")
	if err := s.exec(`synth --out "` + dest + `" hello there`); err != nil {
		t.Fatal(err)
	}
	s.wait()
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("audio not written: %v", err)
	}
	if !bytes.HasSuffix(data, []byte("hello there")) {
		t.Errorf("audio = %q", data)
	}

	if err := s.exec("delete alice"); err == nil || !strings.Contains(err.Error(), "did you mean "+sel.VoiceID) {
		t.Fatalf("delete by partial id = %v, want a suggestion", err)
	}
	if n := backend.Calls(sim.OpDelete); n != 0 {
		t.Fatalf("partial id reached the backend %d times", n)
	}

	if err := s.exec("delete " + sel.VoiceID); err != nil {
		t.Fatal(err)
	}
	s.wait()
	if n := len(s.c.Catalog().Records); n != 0 {
		t.Errorf("catalog after delete has %d voices", n)
	}

	if err := s.exec("jobs"); err != nil {
		t.Fatal(err)
	}
	if err := s.exec("status"); err != nil {
		t.Fatal(err)
	}

	text := out.String()
	for _, want := range []string{"[enrollment]", "[synthesis]", "[listing]", "1/1 deleted", "selected: "} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestShellErrors(t *testing.T) {
	s, _ := newTestShell(t, sim.New(sim.Config{}))

	if err := s.exec("synth hello"); !errors.Is(err, jobs.ErrNoSelection) {
		t.Errorf("synth without selection: %v", err)
	}
	if err := s.exec("frobnicate"); err == nil {
		t.Error("unknown command should fail")
	}
	if err := s.exec(`select "unterminated`); err == nil {
		t.Error("bad quoting should fail")
	}
	if err := s.exec("quit"); !errors.Is(err, errQuit) {
		t.Errorf("quit = %v", err)
	}
	if err := s.exec("exit"); !errors.Is(err, errQuit) {
		t.Errorf("exit = %v", err)
	}
	if err := s.exec("   "); err != nil {
		t.Errorf("blank line = %v", err)
	}
}

func TestFormatEvent(t *testing.T) {
	ev := jobs.Event{Operation: jobs.OpSynthesis, Kind: jobs.KindProgress, Percent: 40, Message: "requesting"}
	if got := formatEvent(ev, false); got != "[synthesis]  40% requesting" {
		t.Errorf("formatEvent = %q", got)
	}
}

func TestSynthText(t *testing.T) {
	got, err := synthText([]string{"hello", "world"}, os.Stdin)
	if err != nil || got != "hello world" {
		t.Errorf("synthText(args) = %q, %v", got, err)
	}

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("  piped text\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	defer f.Close() //nolint:errcheck

	got, err = synthText([]string{"-"}, f)
	if err != nil || got != "piped text" {
		t.Errorf("synthText(-) = %q, %v", got, err)
	}
}

func TestShellDeletePassesUnknownIDs(t *testing.T) {
	backend := sim.New(sim.Config{})
	s, out := newTestShell(t, backend)

	if err := s.exec("delete cosyvoice-v2-gone-00000000"); err != nil {
		t.Fatal(err)
	}
	s.wait()
	if !strings.Contains(out.String(), "0/1 deleted") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRetryHint(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{jobs.NewError(jobs.CodeBusy, "enrollment is in progress", nil), "Try again once it finishes."},
		{jobs.NewError(jobs.CodeTimeout, "still training", nil), "This may succeed if you try again later."},
		{jobs.NewError(jobs.CodeSubmission, "rejected", nil), ""},
		{errors.New("plain"), ""},
	}
	for _, tt := range tests {
		if got := retryHint(tt.err); got != tt.want {
			t.Errorf("retryHint(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	s, _ := newTestShell(t, sim.New(sim.Config{}))
	busy := jobs.NewError(jobs.CodeBusy, "enrollment is in progress", nil)
	if got := s.errorText(busy); got != "error: enrollment is in progress. Try again once it finishes." {
		t.Errorf("errorText = %q", got)
	}
}
