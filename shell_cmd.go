package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/google/shlex"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

const defaultSynthOut = "output.mp3"

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session with background jobs",
	Long: paragraph(fmt.Sprintf("\n%s session over one connection. Jobs run in the background and report progress as it arrives; "+
		"the voice list refreshes after every enrollment and deletion. Type %s for commands.", keyword("Interactive"), keyword("help"))),
	Example: paragraph("voiceclone shell\nvoiceclone --backend sim shell"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		c, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		history := ""
		if dir, err := os.UserCacheDir(); err == nil {
			history = filepath.Join(dir, "voiceclone", "history")
			_ = os.MkdirAll(filepath.Dir(history), 0o700)
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          keyword("voiceclone") + "> ",
			HistoryFile:     history,
			AutoComplete:    shellCompleter(),
			InterruptPrompt: "^C",
			EOFPrompt:       "quit",
		})
		if err != nil {
			return fmt.Errorf("unable to start shell: %w", err)
		}
		defer rl.Close() //nolint:errcheck

		s := newShell(c, rl.Stdout(), isTerminal(os.Stdout))
		s.refresh()
		return s.loop(rl)
	},
}

func shellCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, sc := range shellCommands {
		items = append(items, readline.PcItem(sc.name))
	}
	return readline.NewPrefixCompleter(items...)
}

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

type shellCommand struct {
	name  string
	usage string
	run   func(s *shell, args []string) error
}

var shellCommands []shellCommand

func init() {
	shellCommands = []shellCommand{
		{"refresh", "refresh                       fetch the voice list in the background", (*shell).cmdRefresh},
		{"list", "list                          show the last fetched voice list", (*shell).cmdList},
		{"enroll", "enroll --url U --prefix P [--model M]", (*shell).cmdEnroll},
		{"select", "select ID [--model M]         choose the voice to synthesize with", (*shell).cmdSelect},
		{"synth", "synth [--out PATH] [--volume N] [--rate R] TEXT", (*shell).cmdSynth},
		{"delete", "delete ID...                  delete voices by exact id, last given first", (*shell).cmdDelete},
		{"jobs", "jobs                          show jobs started in this session", (*shell).cmdJobs},
		{"status", "status                        show selection and activity", (*shell).cmdStatus},
		{"help", "help                          show this help", (*shell).cmdHelp},
		{"quit", "quit                          leave the shell", func(*shell, []string) error { return errQuit }},
	}
}

// jobEntry is the shell's view of one background job.
type jobEntry struct {
	id      string
	op      jobs.Operation
	started time.Time
	last    jobs.Event
	done    bool
}

type shell struct {
	c      *jobs.Coordinator
	styled bool

	outMu sync.Mutex
	out   io.Writer

	mu      sync.Mutex
	entries []*jobEntry

	wg sync.WaitGroup
}

func newShell(c *jobs.Coordinator, out io.Writer, styled bool) *shell {
	return &shell{c: c, out: out, styled: styled}
}

func (s *shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *shell) loop(rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to read line: %w", err)
		}

		if err := s.exec(line); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			s.printf("%s\n", s.errorText(err))
		}
	}
}

func (s *shell) errorText(err error) string {
	msg := "error: " + jobs.Reason(err)
	if hint := retryHint(err); hint != "" {
		msg += ". " + hint
	}
	if s.styled {
		return errStyle.Render(msg)
	}
	return msg
}

// exec runs one command line.
func (s *shell) exec(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	name := strings.ToLower(args[0])
	if name == "exit" {
		name = "quit"
	}
	for _, sc := range shellCommands {
		if sc.name == name {
			return sc.run(s, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q, type help", args[0])
}

// splitArgs splits a command line with shell quoting rules.
func splitArgs(line string) ([]string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("unable to parse command: %w", err)
	}
	return args, nil
}

func (s *shell) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(s.out)
	return fs
}

// track registers a handle and prints its events as they arrive. onDone
// runs after a successful terminal event.
func track[T any](s *shell, h *jobs.Handle[T], onDone func(T)) {
	e := &jobEntry{id: h.ID(), op: h.Operation(), started: time.Now()}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range h.Events() {
			s.mu.Lock()
			e.last = ev
			e.done = ev.Kind.Terminal()
			s.mu.Unlock()
			s.printf("%s\n", formatEvent(ev, s.styled))
		}
		v, err := h.Wait()
		if err != nil {
			logFailure(h.Operation(), err)
			if hint := retryHint(err); hint != "" {
				s.printf("%s\n", hint)
			}
			return
		}
		if onDone != nil {
			onDone(v)
		}
	}()
}

func (s *shell) refresh() {
	h, err := s.c.StartListing(context.Background())
	if err != nil {
		s.printf("%s\n", s.errorText(err))
		return
	}
	track(s, h, nil)
}

func (s *shell) cmdRefresh(args []string) error {
	if len(args) > 0 {
		return errors.New("usage: refresh")
	}
	s.refresh()
	return nil
}

func (s *shell) cmdList(args []string) error {
	if len(args) > 0 {
		return errors.New("usage: list")
	}
	snap := s.c.Catalog()
	if snap.FetchedAt.IsZero() {
		s.printf("No listing yet; run refresh.\n")
		return nil
	}

	s.outMu.Lock()
	err := writeRecords(s.out, snap.Records, s.styled)
	s.outMu.Unlock()
	if err != nil {
		return err
	}
	s.printf("%d voices, fetched %s\n", len(snap.Records), humanize.Time(snap.FetchedAt))
	return nil
}

func (s *shell) cmdEnroll(args []string) error {
	fs := s.flagSet("enroll")
	url := fs.String("url", "", "public http(s) url of the audio sample")
	prefix := fs.String("prefix", "", "voice name prefix")
	model := fs.String("model", "", "target model")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	target := voice.Model(*model)
	if target == "" {
		target = voice.Model(cfg.Model)
	}
	h, err := s.c.StartEnrollment(context.Background(), jobs.EnrollmentRequest{
		AudioURL:    *url,
		Prefix:      *prefix,
		TargetModel: target,
	})
	if err != nil {
		return err
	}
	track(s, h, func(string) { s.refresh() })
	return nil
}

func (s *shell) cmdSelect(args []string) error {
	fs := s.flagSet("select")
	model := fs.String("model", "", "model to synthesize with (default: guessed from the id)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: select ID [--model M]")
	}

	id, err := resolveVoice(fs.Arg(0), s.c.Catalog().Records)
	if err != nil {
		return err
	}
	sel, err := s.c.Select(id, voice.Model(*model))
	if err != nil {
		return err
	}
	s.printf("selected %s (%s)\n", sel.VoiceID, sel.Model)
	return nil
}

func (s *shell) cmdSynth(args []string) error {
	fs := s.flagSet("synth")
	out := fs.StringP("out", "o", defaultSynthOut, "output audio file path")
	volume := fs.Int("volume", jobs.DefaultVolume, "volume (0-100)")
	rate := fs.Float64("rate", jobs.DefaultSpeechRate, "speech rate (0.5-2.0)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := s.c.NewSynthesisRequest(strings.Join(fs.Args(), " "), *out, *volume, *rate)
	if err != nil {
		return err
	}
	h, err := s.c.StartSynthesis(context.Background(), req)
	if err != nil {
		return err
	}
	track(s, h, nil)
	return nil
}

func (s *shell) cmdDelete(args []string) error {
	fs := s.flagSet("delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: delete ID...")
	}

	// deletion takes ids as typed; a partial id is only ever a suggestion
	snap := s.c.Catalog()
	for _, q := range fs.Args() {
		if _, ok := snap.Find(q); ok {
			continue
		}
		if id, err := resolveVoice(q, snap.Records); err == nil && id != q {
			return fmt.Errorf("%q is not a voice id; did you mean %s?", q, id)
		}
	}

	summary, err := s.c.DeleteVoices(context.Background(), fs.Args())
	if err != nil {
		return err
	}
	s.outMu.Lock()
	printDeleteSummary(s.out, summary)
	s.outMu.Unlock()
	if summary.Succeeded > 0 {
		s.refresh()
	}
	return nil
}

func (s *shell) cmdJobs([]string) error {
	s.mu.Lock()
	entries := make([]jobEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = *e
	}
	s.mu.Unlock()

	if len(entries) == 0 {
		s.printf("No jobs yet.\n")
		return nil
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].started.Before(entries[j].started) })
	for _, e := range entries {
		state := "running"
		if e.done {
			state = string(e.last.Kind)
		}
		s.printf("%-8s %-10s %-9s %3d%%  %s  (%s)\n",
			e.id[:8], e.op, state, e.last.Percent, e.last.Message, humanize.Time(e.started))
	}
	return nil
}

func (s *shell) cmdStatus([]string) error {
	if sel, ok := s.c.Selection(); ok {
		s.printf("selected: %s (%s)\n", sel.VoiceID, sel.Model)
	} else {
		s.printf("selected: none\n")
	}
	if op, busy := s.c.Busy(); busy {
		s.printf("busy:     %s in progress\n", op)
	} else {
		s.printf("busy:     idle\n")
	}
	snap := s.c.Catalog()
	if snap.FetchedAt.IsZero() {
		s.printf("voices:   not fetched\n")
	} else {
		s.printf("voices:   %d, fetched %s\n", len(snap.Records), humanize.Time(snap.FetchedAt))
	}
	return nil
}

func (s *shell) cmdHelp([]string) error {
	for _, sc := range shellCommands {
		s.printf("  %s\n", sc.usage)
	}
	return nil
}

// resolveVoice maps a possibly partial id onto a catalog id. Exact ids
// win; otherwise the best fuzzy match is used when it is unambiguous.
// Queries matching nothing are returned unchanged.
func resolveVoice(query string, records []voice.Record) (string, error) {
	ids := make([]string, len(records))
	for i, r := range records {
		if r.VoiceID == query {
			return query, nil
		}
		ids[i] = r.VoiceID
	}

	matches := fuzzy.Find(query, ids)
	switch {
	case len(matches) == 0:
		log.Debug("no catalog match, using id as given", "query", query)
		return query, nil
	case len(matches) == 1 || matches[0].Score > matches[1].Score:
		return matches[0].Str, nil
	}

	candidates := make([]string, 0, 5)
	for i := 0; i < len(matches) && i < 5; i++ {
		candidates = append(candidates, matches[i].Str)
	}
	return "", fmt.Errorf("%q is ambiguous: %s", query, strings.Join(candidates, ", "))
}
