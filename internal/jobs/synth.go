package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"

	"github.com/dgnsrekt/voiceclone/internal/remote"
)

// DefaultAudioFormat is requested from the service for every synthesis.
const DefaultAudioFormat = "mp3_22050hz_mono_256kbps"

// Synthesizer renders text with a cloned voice and writes the audio file.
type Synthesizer struct {
	Client remote.Client
	Format string
	Logger *log.Logger
}

// Synthesize makes one synthesis call and writes the returned bytes to
// req.Destination, creating parent directories. It returns the path
// written.
func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest, report ProgressFunc) (string, error) {
	if report == nil {
		report = noProgress
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("synth")
	}
	format := s.Format
	if format == "" {
		format = DefaultAudioFormat
	}

	report(10, fmt.Sprintf("initializing %s", req.Model))
	params := remote.SynthesisParams{
		Model:      string(req.Model),
		Voice:      req.VoiceID,
		Format:     format,
		Volume:     req.Volume,
		SpeechRate: req.SpeechRate,
		Text:       req.Text,
	}

	report(40, fmt.Sprintf("requesting %d characters from %s", len([]rune(req.Text)), req.VoiceID))
	raw, err := s.Client.Synthesize(ctx, params)
	if err != nil {
		logger.Error("synthesis failed", "voice", req.VoiceID, "err", err)
		return "", NewError(CodeSubmission, "synthesis request failed", err).
			WithContext("voice_id", req.VoiceID)
	}

	audio, err := audioBytes(raw)
	if err != nil {
		return "", err
	}
	report(80, fmt.Sprintf("received %s of audio", humanize.Bytes(uint64(len(audio)))))

	path, err := homedir.Expand(req.Destination)
	if err != nil {
		return "", NewError(CodePersist, "could not resolve destination", err).
			WithContext("path", req.Destination)
	}

	report(90, fmt.Sprintf("writing %s", path))
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", NewError(CodePersist, "could not create output directory", err).
				WithContext("path", dir)
		}
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", NewError(CodePersist, "could not write audio file", err).
			WithContext("path", path)
	}

	logger.Info("audio written", "path", path, "size", humanize.Bytes(uint64(len(audio))))
	return path, nil
}

// audioBytes checks that the service returned a non-empty byte payload.
func audioBytes(raw remote.Response) ([]byte, error) {
	data, ok := raw.([]byte)
	if !ok {
		return nil, NewError(CodeInvalidResponse,
			fmt.Sprintf("expected audio bytes, got %T", raw), nil)
	}
	if len(data) == 0 {
		return nil, NewError(CodeInvalidResponse, "service returned empty audio", nil)
	}
	return data, nil
}
