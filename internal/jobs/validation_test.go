package jobs

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/voiceclone/internal/voice"
)

func TestValidateEnrollment(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EnrollmentRequest)
		wantErr bool
	}{
		{"valid", func(*EnrollmentRequest) {}, false},
		{"http url", func(r *EnrollmentRequest) { r.AudioURL = "http://host/a.wav" }, false},
		{"empty url", func(r *EnrollmentRequest) { r.AudioURL = "" }, true},
		{"file url", func(r *EnrollmentRequest) { r.AudioURL = "file:///a.wav" }, true},
		{"no host", func(r *EnrollmentRequest) { r.AudioURL = "https:///a.wav" }, true},
		{"empty prefix", func(r *EnrollmentRequest) { r.Prefix = "" }, true},
		{"long prefix", func(r *EnrollmentRequest) { r.Prefix = "abcdefghijk" }, true},
		{"ten chars", func(r *EnrollmentRequest) { r.Prefix = "abcdefghij" }, false},
		{"punctuation", func(r *EnrollmentRequest) { r.Prefix = "my_voice" }, true},
		{"non ascii", func(r *EnrollmentRequest) { r.Prefix = "声音" }, true},
		{"no model", func(r *EnrollmentRequest) { r.TargetModel = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := enrollReq
			tt.mutate(&req)
			err := ValidateEnrollment(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEnrollment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should match ErrInvalidInput: %v", err)
			}
		})
	}
}

func TestValidateSynthesis(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SynthesisRequest)
		wantErr bool
	}{
		{"valid", func(*SynthesisRequest) {}, false},
		{"blank text", func(r *SynthesisRequest) { r.Text = "  " }, true},
		{"no voice", func(r *SynthesisRequest) { r.VoiceID = "" }, true},
		{"unknown model", func(r *SynthesisRequest) { r.Model = voice.ModelUnknown }, true},
		{"no destination", func(r *SynthesisRequest) { r.Destination = "" }, true},
		{"volume low", func(r *SynthesisRequest) { r.Volume = -1 }, true},
		{"volume high", func(r *SynthesisRequest) { r.Volume = 101 }, true},
		{"volume edges", func(r *SynthesisRequest) { r.Volume = 100 }, false},
		{"rate low", func(r *SynthesisRequest) { r.SpeechRate = 0.4 }, true},
		{"rate high", func(r *SynthesisRequest) { r.SpeechRate = 2.1 }, true},
		{"rate edge", func(r *SynthesisRequest) { r.SpeechRate = 0.5 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := synthReq("/tmp/out.mp3")
			tt.mutate(&req)
			if err := ValidateSynthesis(req); (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSynthesis() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
