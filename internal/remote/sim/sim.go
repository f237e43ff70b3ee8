// Package sim provides an in-memory voice-cloning backend for offline use
// and tests. Voices train for a configurable number of status queries and
// responses can be rendered in each of the shapes the remote SDK has been
// seen to return.
package sim

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/voiceclone/internal/remote"
)

// Shape selects how list and status responses are rendered.
type Shape string

const (
	ShapeBare   Shape = "bare"   // list: bare sequence of mappings
	ShapeObject Shape = "object" // typed values exposing Output()/VoiceList()
	ShapeNested Shape = "nested" // {"output": {...}}
	ShapeFlat   Shape = "flat"   // {"voice_list": [...]} / {"status": ...}
	ShapeMixed  Shape = "mixed"  // rotates through the others per call
)

// Shapes lists the accepted Shape values.
var Shapes = []Shape{ShapeBare, ShapeObject, ShapeNested, ShapeFlat, ShapeMixed}

// ParseShape maps a config string to a Shape, defaulting to nested.
func ParseShape(s string) (Shape, error) {
	if s == "" {
		return ShapeNested, nil
	}
	for _, sh := range Shapes {
		if string(sh) == strings.ToLower(s) {
			return sh, nil
		}
	}
	return "", fmt.Errorf("unknown sim shape %q", s)
}

// Op names a backend operation for failure injection.
type Op string

const (
	OpList       Op = "list"
	OpCreate     Op = "create"
	OpQuery      Op = "query"
	OpDelete     Op = "delete"
	OpSynthesize Op = "synthesize"
)

// Config controls the simulated service.
type Config struct {
	// TrainingPolls is how many status queries a new voice stays DEPLOYING.
	TrainingPolls int

	// FailEvery makes every n-th enrollment end UNDEPLOYED; 0 disables it.
	FailEvery int

	// Shape of list and status responses.
	Shape Shape

	// Latency is slept before each call, honouring ctx.
	Latency time.Duration
}

type simVoice struct {
	id       string
	model    string
	status   string
	polls    int
	fail     bool
	created  time.Time
	modified time.Time
}

// Backend is an in-memory remote.Client.
type Backend struct {
	mu       sync.Mutex
	cfg      Config
	voices   map[string]*simVoice
	failures map[Op]error
	calls    map[Op]int
	enrolled int
	rotation int
	now      func() time.Time
}

var _ remote.Client = (*Backend)(nil)

// New creates an empty simulated account.
func New(cfg Config) *Backend {
	if cfg.Shape == "" {
		cfg.Shape = ShapeNested
	}
	if cfg.TrainingPolls < 0 {
		cfg.TrainingPolls = 0
	}
	return &Backend{
		cfg:      cfg,
		voices:   make(map[string]*simVoice),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
		now:      time.Now,
	}
}

// Seed adds a voice that is already in the given raw status.
func (b *Backend) Seed(id, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.now()
	b.voices[id] = &simVoice{id: id, status: status, created: t, modified: t}
}

// SetFailure makes every call to op return err until cleared with nil.
func (b *Backend) SetFailure(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls returns how many times op has been invoked.
func (b *Backend) Calls(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// enter records the call, applies latency and returns any injected failure.
func (b *Backend) enter(ctx context.Context, op Op) error {
	b.mu.Lock()
	b.calls[op]++
	err := b.failures[op]
	latency := b.cfg.Latency
	b.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// ListVoices returns one page of voices ordered by creation time.
func (b *Backend) ListVoices(ctx context.Context, pageIndex, pageSize int) (remote.Response, error) {
	if err := b.enter(ctx, OpList); err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid page %d/%d", pageIndex, pageSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]*simVoice, 0, len(b.voices))
	for _, v := range b.voices {
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].created.Equal(all[j].created) {
			return all[i].id < all[j].id
		}
		return all[i].created.Before(all[j].created)
	})

	start := pageIndex * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	items := make([]any, 0, end-start)
	for _, v := range all[start:end] {
		items = append(items, map[string]any{
			"voice_id":     v.id,
			"status":       v.status,
			"gmt_create":   v.created.Format(time.DateTime),
			"gmt_modified": v.modified.Format(time.DateTime),
		})
	}
	return b.renderList(items), nil
}

// CreateVoice registers a new voice in the DEPLOYING state.
func (b *Backend) CreateVoice(ctx context.Context, req remote.CreateVoiceRequest) (string, error) {
	if err := b.enter(ctx, OpCreate); err != nil {
		return "", err
	}
	if req.TargetModel == "" || req.Prefix == "" || req.URL == "" {
		return "", fmt.Errorf("target model, prefix and url are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.enrolled++
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	id := fmt.Sprintf("%s-%s-%s", req.TargetModel, req.Prefix, suffix)
	t := b.now()
	b.voices[id] = &simVoice{
		id:       id,
		model:    req.TargetModel,
		status:   "DEPLOYING",
		fail:     b.cfg.FailEvery > 0 && b.enrolled%b.cfg.FailEvery == 0,
		created:  t,
		modified: t,
	}
	return id, nil
}

// QueryVoice advances the voice's training by one step and reports it.
func (b *Backend) QueryVoice(ctx context.Context, voiceID string) (remote.Response, error) {
	if err := b.enter(ctx, OpQuery); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.voices[voiceID]
	if !ok {
		return nil, fmt.Errorf("voice %s not found", voiceID)
	}
	if v.status == "DEPLOYING" {
		v.polls++
		if v.polls > b.cfg.TrainingPolls {
			v.status = "OK"
			if v.fail {
				v.status = "UNDEPLOYED"
			}
			v.modified = b.now()
		}
	}
	return b.renderStatus(v), nil
}

// DeleteVoice removes a voice; unknown ids are an error.
func (b *Backend) DeleteVoice(ctx context.Context, voiceID string) error {
	if err := b.enter(ctx, OpDelete); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.voices[voiceID]; !ok {
		return fmt.Errorf("voice %s not found", voiceID)
	}
	delete(b.voices, voiceID)
	return nil
}

// id3Header is a minimal ID3v2.4 tag with no frames.
var id3Header = []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 0}

// Synthesize returns a fake audio payload for a voice that is ready.
func (b *Backend) Synthesize(ctx context.Context, params remote.SynthesisParams) (remote.Response, error) {
	if err := b.enter(ctx, OpSynthesize); err != nil {
		return nil, err
	}

	b.mu.Lock()
	var status string
	v, ok := b.voices[params.Voice]
	if ok {
		status = v.status
	}
	b.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("voice %s not found", params.Voice)
	}
	if status != "OK" {
		return nil, fmt.Errorf("voice %s is %s", params.Voice, status)
	}

	var buf bytes.Buffer
	buf.Write(id3Header)
	buf.WriteString(params.Text)
	return buf.Bytes(), nil
}

// shape returns the shape for the next response; mixed rotates.
func (b *Backend) shape() Shape {
	if b.cfg.Shape != ShapeMixed {
		return b.cfg.Shape
	}
	sh := Shapes[b.rotation%(len(Shapes)-1)]
	b.rotation++
	return sh
}

func (b *Backend) renderList(items []any) remote.Response {
	switch b.shape() {
	case ShapeBare:
		return items
	case ShapeObject:
		return listResult{items: items}
	case ShapeFlat:
		return map[string]any{"voice_list": items}
	default:
		return map[string]any{"output": map[string]any{"voice_list": items}}
	}
}

func (b *Backend) renderStatus(v *simVoice) remote.Response {
	fields := map[string]any{
		"voice_id":     v.id,
		"status":       v.status,
		"target_model": v.model,
		"gmt_create":   v.created.Format(time.DateTime),
		"gmt_modified": v.modified.Format(time.DateTime),
	}
	switch b.shape() {
	case ShapeObject:
		return statusResult{id: v.id, status: v.status}
	case ShapeFlat, ShapeBare:
		return fields
	default:
		return map[string]any{"output": fields}
	}
}

// listResult mimics an SDK response object exposing its payload via methods.
type listResult struct{ items []any }

func (r listResult) Output() any { return voiceList(r) }
func (r listResult) VoiceList() []any { return r.items }

type voiceList listResult

func (r voiceList) VoiceList() []any { return r.items }

type statusResult struct{ id, status string }

func (r statusResult) Output() any { return statusPayload(r) }
func (r statusResult) Status() string { return r.status }
func (r statusResult) VoiceID() string { return r.id }

type statusPayload statusResult

func (r statusPayload) Status() string { return r.status }
func (r statusPayload) VoiceID() string { return r.id }
