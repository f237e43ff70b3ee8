package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	if cfg.Backend != BackendBridge {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.PageSize != 50 || cfg.PagePause != 100*time.Millisecond {
		t.Errorf("paging = %d / %v", cfg.PageSize, cfg.PagePause)
	}
	if cfg.PollInterval != 5*time.Second || cfg.PollAttempts != 120 {
		t.Errorf("polling = %v / %d", cfg.PollInterval, cfg.PollAttempts)
	}
	if len(cfg.LanguageHints) != 1 || cfg.LanguageHints[0] != "zh" {
		t.Errorf("LanguageHints = %v", cfg.LanguageHints)
	}
	if cfg.Model != "cosyvoice-v3-plus" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "sk-abcdef123456")
	t.Setenv("VOICECLONE_BACKEND", "sim")
	t.Setenv("VOICECLONE_POLL_INTERVAL", "250ms")
	t.Setenv("VOICECLONE_LANGUAGE_HINTS", "en,zh")
	t.Setenv("VOICECLONE_SIM_SHAPE", "flat")

	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-abcdef123456" || cfg.Backend != BackendSim {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if strings.Join(cfg.LanguageHints, ",") != "en,zh" {
		t.Errorf("LanguageHints = %v", cfg.LanguageHints)
	}
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("VOICECLONE_PAGE_PAUSE", "soon")
	if _, err := Parse(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	base, err := Parse()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Backend = "http" }, "unknown backend"},
		{"bridge", func(c *Config) { c.BridgeCommand = " " }, "bridge command"},
		{"shape", func(c *Config) { c.Backend = BackendSim; c.SimShape = "xml" }, "sim shape"},
		{"model", func(c *Config) { c.Model = "cosyvoice-v9" }, "unknown model"},
		{"page size", func(c *Config) { c.PageSize = 0 }, "page size"},
		{"attempts", func(c *Config) { c.PollAttempts = 0 }, "poll attempts"},
		{"interval", func(c *Config) { c.PollInterval = 0 }, "poll interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{APIKey: "sk-1234567890abcd"}
	if got := cfg.Redacted().APIKey; got != "****abcd" {
		t.Errorf("redacted = %q", got)
	}
	if cfg.APIKey != "sk-1234567890abcd" {
		t.Error("Redacted must not modify the receiver")
	}
	if RedactKey("") != "(unset)" || RedactKey("short") != "****" {
		t.Error("RedactKey edge cases")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is fine", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "absent.env")); err != nil {
			t.Errorf("LoadFile(absent) error = %v", err)
		}
	})

	t.Run("values are loaded", func(t *testing.T) {
		// registered so the variable is restored after the file sets it
		t.Setenv("VOICECLONE_SIM_SHAPE", "")
		os.Unsetenv("VOICECLONE_SIM_SHAPE") //nolint:errcheck

		path := filepath.Join(dir, "good.env")
		if err := os.WriteFile(path, []byte("# local\nVOICECLONE_SIM_SHAPE=bare\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.SimShape != "bare" {
			t.Errorf("SimShape = %q, want bare", cfg.SimShape)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.env")
		if err := os.WriteFile(path, []byte("VOICE-CLONE=1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFile(path)
		if err == nil || !strings.Contains(err.Error(), "bad.env") {
			t.Errorf("LoadFile(bad) error = %v", err)
		}
	})
}
