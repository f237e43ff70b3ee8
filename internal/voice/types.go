// Package voice holds the canonical voice record and the normalizer that
// turns raw remote responses into it.
package voice

import "strings"

// Status is the normalized state of a cloned voice.
type Status string

const (
	StatusReady      Status = "Ready"
	StatusTraining   Status = "Training"
	StatusDeploying  Status = "Deploying"
	StatusFailed     Status = "Failed"
	StatusUndeployed Status = "Undeployed"
	StatusUnknown    Status = "Unknown"
)

// ParseStatusString maps a raw remote status string onto a Status.
// Matching is case-insensitive; unrecognized values map to StatusUnknown.
func ParseStatusString(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "OK", "READY", "SUCCESS", "SUCCEEDED":
		return StatusReady
	case "TRAINING", "PENDING", "PROCESSING", "RUNNING", "QUEUED":
		return StatusTraining
	case "DEPLOYING":
		return StatusDeploying
	case "FAILED", "FAILURE", "ERROR":
		return StatusFailed
	case "UNDEPLOYED":
		return StatusUndeployed
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether no further status change is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusReady, StatusFailed, StatusUndeployed:
		return true
	default:
		return false
	}
}

// Description returns the human-readable text shown while a voice is
// being polled. Deploying is displayed as a sub-state of training.
func (s Status) Description() string {
	switch s {
	case StatusReady:
		return "voice ready"
	case StatusTraining:
		return "training"
	case StatusDeploying:
		return "training (deploying)"
	case StatusFailed:
		return "training failed"
	case StatusUndeployed:
		return "voice undeployed"
	default:
		return "waiting for status"
	}
}

// Model names a synthesis model family.
type Model string

const (
	ModelV3Plus  Model = "cosyvoice-v3-plus"
	ModelV3Flash Model = "cosyvoice-v3-flash"
	ModelV2      Model = "cosyvoice-v2"
	ModelV1      Model = "cosyvoice-v1"
	ModelUnknown Model = "Unknown"
)

// Models lists the model families the tool knows about, newest first.
var Models = []Model{ModelV3Plus, ModelV3Flash, ModelV2, ModelV1}

// modelMarkers is checked in order; the first substring found wins.
var modelMarkers = []struct {
	marker string
	model  Model
}{
	{"v3-plus", ModelV3Plus},
	{"v3-flash", ModelV3Flash},
	{"v2", ModelV2},
	{"v1", ModelV1},
}

// GuessModel derives a best-effort model hint from a voice id. The id is
// opaque, so the result is a heuristic and may be wrong.
func GuessModel(voiceID string) Model {
	for _, m := range modelMarkers {
		if strings.Contains(voiceID, m.marker) {
			return m.model
		}
	}
	return ModelUnknown
}

// IsV3 reports whether the model belongs to the v3 family, which needs a
// language hint on enrollment.
func (m Model) IsV3() bool {
	return strings.Contains(string(m), "v3")
}

// Known reports whether m is one of Models.
func (m Model) Known() bool {
	for _, k := range Models {
		if k == m {
			return true
		}
	}
	return false
}

// Record is one voice owned by the remote account, as of the last fetch.
type Record struct {
	VoiceID   string `json:"voice_id"`
	Status    Status `json:"status"`
	RawStatus string `json:"raw_status,omitempty"`
	ModelHint Model  `json:"model_hint"`
	CreatedAt string `json:"gmt_create,omitempty"`
	UpdatedAt string `json:"gmt_modified,omitempty"`
}

// NewRecord builds a record from a voice id and its raw status string.
func NewRecord(voiceID, rawStatus string) Record {
	return Record{
		VoiceID:   voiceID,
		Status:    ParseStatusString(rawStatus),
		RawStatus: rawStatus,
		ModelHint: GuessModel(voiceID),
	}
}
