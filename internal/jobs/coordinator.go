// Package jobs runs voice-cloning operations in the background and
// reports their progress through ordered event streams.
//
// Listing runs freely. Enrollment, synthesis and deletion share a single
// exclusive slot: while one holds it the others fail fast with ErrBusy.
package jobs

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/remote"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

// Snapshot is a copy of the last completed listing.
type Snapshot struct {
	Records   []voice.Record
	FetchedAt time.Time
}

// Find returns the record for voiceID, if present.
func (s Snapshot) Find(voiceID string) (voice.Record, bool) {
	for _, r := range s.Records {
		if r.VoiceID == voiceID {
			return r, true
		}
	}
	return voice.Record{}, false
}

// Selection is the session's chosen voice and the model to synthesize with.
type Selection struct {
	VoiceID string
	Model   voice.Model
}

// DeleteFailure records one id a batch delete could not remove.
type DeleteFailure struct {
	VoiceID string
	Err     error
}

// DeleteSummary reports a batch delete.
type DeleteSummary struct {
	Succeeded int
	Total     int
	Removed   []string
	Failures  []DeleteFailure
}

// Coordinator owns the catalog snapshot, the session selection and the
// exclusive mutation slot.
type Coordinator struct {
	client remote.Client
	logger *log.Logger

	pageSize      int
	pagePause     time.Duration
	pollInterval  time.Duration
	pollAttempts  int
	languageHints []string
	audioFormat   string
	defaultModel  voice.Model

	slot slot

	mu        sync.RWMutex
	catalog   Snapshot
	selection *Selection

	// listings counts started listings; landed is the number of the one
	// the catalog came from.
	listings uint64
	landed   uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used by the coordinator and its jobs.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(c *Coordinator) { c.pageSize = n }
}

// WithPagePause sets the pause between listing pages.
func WithPagePause(d time.Duration) Option {
	return func(c *Coordinator) { c.pagePause = d }
}

// WithPollInterval sets the delay between enrollment status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

// WithPollAttempts sets the enrollment status check budget.
func WithPollAttempts(n int) Option {
	return func(c *Coordinator) { c.pollAttempts = n }
}

// WithLanguageHints sets the hints sent with v3-family enrollments.
func WithLanguageHints(hints []string) Option {
	return func(c *Coordinator) { c.languageHints = slices.Clone(hints) }
}

// WithAudioFormat sets the synthesis output format.
func WithAudioFormat(format string) Option {
	return func(c *Coordinator) { c.audioFormat = format }
}

// WithDefaultModel sets the model used when a selection names none and
// the voice id gives no hint.
func WithDefaultModel(m voice.Model) Option {
	return func(c *Coordinator) { c.defaultModel = m }
}

// New creates a coordinator over client.
func New(client remote.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:        client,
		logger:        log.Default(),
		pageSize:      DefaultPageSize,
		pagePause:     DefaultPagePause,
		pollInterval:  DefaultPollInterval,
		pollAttempts:  DefaultPollAttempts,
		languageHints: DefaultLanguageHints,
		audioFormat:   DefaultAudioFormat,
		defaultModel:  voice.ModelV3Plus,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartListing fetches every page of the catalog in the background. On
// completion the catalog snapshot is replaced with the result, unless a
// listing started later has already replaced it.
func (c *Coordinator) StartListing(ctx context.Context) (*Handle[[]voice.Record], error) {
	h := newHandle[[]voice.Record](OpListing)
	f := &Fetcher{
		Client:   c.client,
		PageSize: c.pageSize,
		Pause:    c.pagePause,
		Logger:   c.logger.WithPrefix("catalog"),
	}

	c.mu.Lock()
	c.listings++
	seq := c.listings
	c.mu.Unlock()

	spawn(c, h, func() {}, func(report ProgressFunc) ([]voice.Record, string, error) {
		records, err := f.FetchAll(ctx, report)
		if err != nil {
			return nil, "", err
		}
		if !c.land(seq, records) {
			c.logger.Debug("newer listing already landed, catalog kept", "job", h.ID())
			return records, fmt.Sprintf("%d voices (superseded by a newer listing)", len(records)), nil
		}
		return records, fmt.Sprintf("%d voices", len(records)), nil
	})
	return h, nil
}

// land replaces the catalog with the result of listing seq if no later
// listing has landed first.
func (c *Coordinator) land(seq uint64, records []voice.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.landed {
		return false
	}
	c.landed = seq
	c.catalog = Snapshot{Records: records, FetchedAt: time.Now()}
	return true
}

// StartEnrollment validates req, takes the exclusive slot and runs the
// enrollment in the background. The job keeps running if ctx is
// cancelled; training continues server-side either way.
func (c *Coordinator) StartEnrollment(ctx context.Context, req EnrollmentRequest) (*Handle[string], error) {
	if err := ValidateEnrollment(req); err != nil {
		return nil, err
	}
	release, err := c.slot.acquire(OpEnrollment)
	if err != nil {
		return nil, err
	}

	h := newHandle[string](OpEnrollment)
	e := &Enroller{
		Client:        c.client,
		Interval:      c.pollInterval,
		MaxAttempts:   c.pollAttempts,
		LanguageHints: c.languageHints,
		Logger:        c.logger.WithPrefix("enroll"),
	}
	detached := context.WithoutCancel(ctx)

	spawn(c, h, release, func(report ProgressFunc) (string, string, error) {
		id, err := e.Enroll(detached, req, report)
		if err != nil {
			return "", "", err
		}
		return id, fmt.Sprintf("voice %s is ready", id), nil
	})
	return h, nil
}

// StartSynthesis validates req, takes the exclusive slot and runs the
// synthesis in the background. The result is the path written.
func (c *Coordinator) StartSynthesis(ctx context.Context, req SynthesisRequest) (*Handle[string], error) {
	if err := ValidateSynthesis(req); err != nil {
		return nil, err
	}
	release, err := c.slot.acquire(OpSynthesis)
	if err != nil {
		return nil, err
	}

	h := newHandle[string](OpSynthesis)
	s := &Synthesizer{
		Client: c.client,
		Format: c.audioFormat,
		Logger: c.logger.WithPrefix("synth"),
	}
	detached := context.WithoutCancel(ctx)

	spawn(c, h, release, func(report ProgressFunc) (string, string, error) {
		path, err := s.Synthesize(detached, req, report)
		if err != nil {
			return "", "", err
		}
		return path, "saved " + path, nil
	})
	return h, nil
}

// DeleteVoices removes ids one at a time, last supplied first. Duplicate
// ids are removed once. A failing id does not stop the batch. The
// catalog is left as is; callers refresh it.
func (c *Coordinator) DeleteVoices(ctx context.Context, ids []string) (DeleteSummary, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return DeleteSummary{}, NewError(CodeInvalidInput, "no voice ids to delete", nil)
	}

	release, err := c.slot.acquire(OpDelete)
	if err != nil {
		return DeleteSummary{}, err
	}
	defer release()

	summary := DeleteSummary{Total: len(unique)}
	for i := len(unique) - 1; i >= 0; i-- {
		id := unique[i]
		if err := c.client.DeleteVoice(ctx, id); err != nil {
			c.logger.Warn("delete failed", "voice", id, "err", err)
			summary.Failures = append(summary.Failures, DeleteFailure{VoiceID: id, Err: err})
			continue
		}
		c.logger.Info("voice deleted", "voice", id)
		summary.Succeeded++
		summary.Removed = append(summary.Removed, id)
	}
	return summary, nil
}

// Catalog returns a copy of the last completed listing.
func (c *Coordinator) Catalog() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Records:   slices.Clone(c.catalog.Records),
		FetchedAt: c.catalog.FetchedAt,
	}
}

// Select makes voiceID the session voice. An empty model is resolved from
// the id's hint when it names a known model, else the default model. A
// voice that the catalog lists as not ready is refused; ids the catalog
// does not know are accepted as given.
func (c *Coordinator) Select(voiceID string, model voice.Model) (Selection, error) {
	if voiceID == "" {
		return Selection{}, NewError(CodeInvalidInput, "voice id is required", nil)
	}

	if model == "" {
		if hint := voice.GuessModel(voiceID); hint.Known() {
			model = hint
		} else {
			model = c.defaultModel
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.catalog.Find(voiceID); ok && r.Status != voice.StatusReady {
		return Selection{}, NewError(CodeInvalidInput,
			fmt.Sprintf("voice %s is %s", voiceID, r.Status.Description()), ErrVoiceNotReady)
	}

	sel := Selection{VoiceID: voiceID, Model: model}
	c.selection = &sel
	return sel, nil
}

// Selection returns the session voice, if one has been selected.
func (c *Coordinator) Selection() (Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selection == nil {
		return Selection{}, false
	}
	return *c.selection, true
}

// NewSynthesisRequest builds a request for the selected voice. The
// selection is not re-checked against the catalog.
func (c *Coordinator) NewSynthesisRequest(text, destination string, volume int, speechRate float64) (SynthesisRequest, error) {
	sel, ok := c.Selection()
	if !ok {
		return SynthesisRequest{}, NewError(CodeInvalidInput, "select a voice first", ErrNoSelection)
	}
	return SynthesisRequest{
		Text:        text,
		VoiceID:     sel.VoiceID,
		Model:       sel.Model,
		Volume:      volume,
		SpeechRate:  speechRate,
		Destination: destination,
	}, nil
}

// Busy reports which operation holds the exclusive slot.
func (c *Coordinator) Busy() (Operation, bool) {
	return c.slot.current()
}

// spawn runs work on its own goroutine. The slot is released before the
// terminal event is queued, so a consumer reacting to it can start the
// next operation straight away. Panics become INTERNAL failures.
func spawn[T any](c *Coordinator, h *Handle[T], release func(), work func(ProgressFunc) (T, string, error)) {
	go func() {
		var (
			value   T
			summary string
			err     error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				value = zero
				err = NewError(CodeInternal, fmt.Sprintf("%s panicked: %v", h.Operation(), r), nil)
				c.logger.Error("job panicked", "job", h.ID(), "op", h.Operation(), "panic", r)
			}
			release()
			h.finish(value, summary, err)
		}()

		h.progress(0, fmt.Sprintf("%s started", h.Operation()))
		value, summary, err = work(h.progress)
	}()
}
