package voice

import "testing"

func TestGuessModel(t *testing.T) {
	tests := []struct {
		id   string
		want Model
	}{
		{"cosyvoice-v3-plus-myvoice-1234", ModelV3Plus},
		{"cosyvoice-v3-flash-myvoice-1234", ModelV3Flash},
		{"cosyvoice-v2-myvoice-1234", ModelV2},
		{"cosyvoice-v1-myvoice-1234", ModelV1},
		// first marker wins even when a later one also matches
		{"cosyvoice-v3-plus-v2fan-1234", ModelV3Plus},
		{"v2v1", ModelV2},
		{"cosyvoice-v3-myvoice", ModelUnknown},
		{"longxiaochun", ModelUnknown},
		{"", ModelUnknown},
	}
	for _, tt := range tests {
		if got := GuessModel(tt.id); got != tt.want {
			t.Errorf("GuessModel(%q) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestParseStatusString(t *testing.T) {
	tests := map[string]Status{
		"OK":         StatusReady,
		"ok":         StatusReady,
		" READY ":    StatusReady,
		"TRAINING":   StatusTraining,
		"Pending":    StatusTraining,
		"DEPLOYING":  StatusDeploying,
		"FAILED":     StatusFailed,
		"UNDEPLOYED": StatusUndeployed,
		"":           StatusUnknown,
		"ARCHIVED":   StatusUnknown,
	}
	for raw, want := range tests {
		if got := ParseStatusString(raw); got != want {
			t.Errorf("ParseStatusString(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestStatusTerminalAndDescription(t *testing.T) {
	for _, s := range []Status{StatusReady, StatusFailed, StatusUndeployed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusTraining, StatusDeploying, StatusUnknown} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if StatusDeploying.Description() == StatusTraining.Description() {
		t.Error("deploying should be labelled distinctly")
	}
	if StatusUnknown.Description() == "" {
		t.Error("every status needs a description")
	}
}

func TestModelFamilies(t *testing.T) {
	if !ModelV3Plus.IsV3() || !ModelV3Flash.IsV3() {
		t.Error("v3 models should report IsV3")
	}
	if ModelV2.IsV3() || ModelV1.IsV3() {
		t.Error("v1/v2 models should not report IsV3")
	}
	if !ModelV1.Known() || Model("cosyvoice-v9").Known() {
		t.Error("Known() mismatch")
	}
}
