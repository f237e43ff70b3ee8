// Package remote defines the operation-call seam between the job layer and
// the voice-cloning service. Transport and authentication live behind it.
package remote

import (
	"context"
	"errors"
)

// ErrMissingCredential indicates a backend was configured without an API key.
var ErrMissingCredential = errors.New("missing API key - set DASHSCOPE_API_KEY")

// Response is a raw remote result. Its shape is not fixed: callers pass it
// through the voice normalizer.
type Response = any

// CreateVoiceRequest is the payload of a clone submission.
type CreateVoiceRequest struct {
	TargetModel   string
	Prefix        string
	URL           string
	LanguageHints []string
}

// SynthesisParams is the payload of a one-shot synthesis call.
type SynthesisParams struct {
	Model      string
	Voice      string
	Format     string
	Volume     int
	SpeechRate float64
	Text       string
}

// Client is the set of remote operations the job layer consumes.
// Implementations must be safe for concurrent use.
type Client interface {
	// ListVoices returns one page of the account's voices.
	ListVoices(ctx context.Context, pageIndex, pageSize int) (Response, error)

	// CreateVoice submits a clone request and returns the new voice id.
	CreateVoice(ctx context.Context, req CreateVoiceRequest) (string, error)

	// QueryVoice returns the current state of one voice.
	QueryVoice(ctx context.Context, voiceID string) (Response, error)

	// DeleteVoice removes one voice.
	DeleteVoice(ctx context.Context, voiceID string) error

	// Synthesize renders text to audio. A well-behaved backend returns
	// []byte; anything else is reported by the caller.
	Synthesize(ctx context.Context, params SynthesisParams) (Response, error)
}
