package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voiceclone/internal/remote"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollAttempts = 120
)

// DefaultLanguageHints are sent with v3-family enrollments.
var DefaultLanguageHints = []string{"zh"}

// Enroller submits a clone request and polls it to a terminal status.
type Enroller struct {
	Client        remote.Client
	Interval      time.Duration
	MaxAttempts   int
	LanguageHints []string
	Logger        *log.Logger
}

// Enroll runs one enrollment and returns the new voice id once the
// service reports it ready. Submission is attempted once. Status query
// errors are logged and the poll continues until the attempt budget runs
// out.
func (e *Enroller) Enroll(ctx context.Context, req EnrollmentRequest, report ProgressFunc) (string, error) {
	if report == nil {
		report = noProgress
	}
	logger := e.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("enroll")
	}
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}

	create := remote.CreateVoiceRequest{
		TargetModel: string(req.TargetModel),
		Prefix:      req.Prefix,
		URL:         req.AudioURL,
	}
	if req.TargetModel.IsV3() {
		create.LanguageHints = e.LanguageHints
		if len(create.LanguageHints) == 0 {
			create.LanguageHints = DefaultLanguageHints
		}
	}

	report(10, fmt.Sprintf("submitting %s enrollment", req.TargetModel))
	voiceID, err := e.Client.CreateVoice(ctx, create)
	if err != nil {
		logger.Error("enrollment rejected", "model", req.TargetModel, "prefix", req.Prefix, "err", err)
		return "", NewError(CodeSubmission, "enrollment submission failed", err).
			WithContext("prefix", req.Prefix)
	}
	logger.Info("enrollment submitted", "voice", voiceID)
	report(30, fmt.Sprintf("submitted %s, waiting for training", voiceID))

	last := voice.StatusUnknown
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := sleep(ctx, interval); err != nil {
			return "", NewError(CodeInternal, "enrollment polling interrupted", err).
				WithContext("voice_id", voiceID)
		}

		percent := 30 + 40*attempt/attempts
		raw, err := e.Client.QueryVoice(ctx, voiceID)
		if err != nil {
			logger.Debug("status query failed", "voice", voiceID, "attempt", attempt, "err", err)
			report(percent, fmt.Sprintf("status check %d/%d failed: %v", attempt, attempts, err))
			continue
		}

		status, rawStatus, perr := voice.ParseStatus(raw)
		if perr != nil {
			logger.Debug("unrecognized status response", "voice", voiceID, "err", perr)
		}
		if status != last {
			logger.Debug("status changed", "voice", voiceID, "from", last, "to", status, "raw", rawStatus)
			last = status
		}

		switch status {
		case voice.StatusReady:
			return voiceID, nil
		case voice.StatusFailed, voice.StatusUndeployed:
			return "", NewError(CodeRemoteFailed,
				fmt.Sprintf("voice %s ended %s (%s)", voiceID, status.Description(), rawStatus), nil).
				WithContext("voice_id", voiceID)
		default:
			report(percent, fmt.Sprintf("%s (check %d/%d)", status.Description(), attempt, attempts))
		}
	}

	return "", NewError(CodeTimeout,
		fmt.Sprintf("voice %s was still training after %d checks; refresh the voice list later to see whether it finished", voiceID, attempts), nil).
		WithContext("voice_id", voiceID)
}
