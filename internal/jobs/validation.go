package jobs

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/dgnsrekt/voiceclone/internal/voice"
)

const (
	// MaxPrefixLen is the longest prefix the service accepts.
	MaxPrefixLen = 10

	MinVolume     = 0
	MaxVolume     = 100
	MinSpeechRate = 0.5
	MaxSpeechRate = 2.0

	DefaultVolume     = 50
	DefaultSpeechRate = 1.0
)

// EnrollmentRequest describes a voice to clone from a public audio sample.
type EnrollmentRequest struct {
	AudioURL    string
	Prefix      string
	TargetModel voice.Model
}

// SynthesisRequest describes a one-shot synthesis written to Destination.
type SynthesisRequest struct {
	Text        string
	VoiceID     string
	Model       voice.Model
	Volume      int
	SpeechRate  float64
	Destination string
}

func invalid(format string, args ...any) *Error {
	return NewError(CodeInvalidInput, fmt.Sprintf(format, args...), nil)
}

// ValidateEnrollment checks an enrollment request before submission.
func ValidateEnrollment(req EnrollmentRequest) error {
	if strings.TrimSpace(req.AudioURL) == "" {
		return invalid("audio url is required")
	}
	u, err := url.Parse(req.AudioURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("audio url must be a public http(s) url, got %q", req.AudioURL)
	}

	if req.Prefix == "" {
		return invalid("prefix is required")
	}
	if len(req.Prefix) > MaxPrefixLen {
		return invalid("prefix %q is longer than %d characters", req.Prefix, MaxPrefixLen)
	}
	for _, r := range req.Prefix {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return invalid("prefix %q must be alphanumeric", req.Prefix)
		}
	}

	if strings.TrimSpace(string(req.TargetModel)) == "" {
		return invalid("target model is required")
	}
	return nil
}

// ValidateSynthesis checks a synthesis request before any remote call.
func ValidateSynthesis(req SynthesisRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return invalid("text is empty")
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return invalid("voice id is required")
	}
	if strings.TrimSpace(string(req.Model)) == "" || req.Model == voice.ModelUnknown {
		return invalid("model is required")
	}
	if strings.TrimSpace(req.Destination) == "" {
		return invalid("destination path is required")
	}
	if req.Volume < MinVolume || req.Volume > MaxVolume {
		return invalid("volume must be between %d and %d, got %d", MinVolume, MaxVolume, req.Volume)
	}
	if req.SpeechRate < MinSpeechRate || req.SpeechRate > MaxSpeechRate {
		return invalid("speech rate must be between %.1f and %.1f, got %g", MinSpeechRate, MaxSpeechRate, req.SpeechRate)
	}
	return nil
}
