// Package config loads voiceclone settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dgnsrekt/voiceclone/internal/remote/sim"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

// Backends accepted by Config.Backend.
const (
	BackendBridge = "bridge"
	BackendSim    = "sim"
)

// Config holds every tunable the CLI hands to the remote backend and the
// job coordinator.
type Config struct {
	APIKey string `env:"DASHSCOPE_API_KEY"`

	Backend       string        `env:"VOICECLONE_BACKEND"        envDefault:"bridge"`
	BridgeCommand string        `env:"VOICECLONE_BRIDGE"         envDefault:"dashscope-bridge"`
	BridgeTimeout time.Duration `env:"VOICECLONE_BRIDGE_TIMEOUT" envDefault:"60s"`

	Model         string   `env:"VOICECLONE_MODEL"          envDefault:"cosyvoice-v3-plus"`
	LanguageHints []string `env:"VOICECLONE_LANGUAGE_HINTS" envDefault:"zh" envSeparator:","`
	AudioFormat   string   `env:"VOICECLONE_AUDIO_FORMAT"   envDefault:"mp3_22050hz_mono_256kbps"`

	PageSize     int           `env:"VOICECLONE_PAGE_SIZE"     envDefault:"50"`
	PagePause    time.Duration `env:"VOICECLONE_PAGE_PAUSE"    envDefault:"100ms"`
	PollInterval time.Duration `env:"VOICECLONE_POLL_INTERVAL" envDefault:"5s"`
	PollAttempts int           `env:"VOICECLONE_POLL_ATTEMPTS" envDefault:"120"`

	RequestsPerMinute int `env:"VOICECLONE_RPM"   envDefault:"120"`
	Burst             int `env:"VOICECLONE_BURST" envDefault:"5"`

	// Simulated backend
	SimTrainingPolls int    `env:"VOICECLONE_SIM_TRAINING_POLLS" envDefault:"3"`
	SimFailEvery     int    `env:"VOICECLONE_SIM_FAIL_EVERY"     envDefault:"0"`
	SimShape         string `env:"VOICECLONE_SIM_SHAPE"          envDefault:"mixed"`
}

// DotEnvFile is the file Load reads from the working directory.
const DotEnvFile = ".env"

// Load reads a .env file from the working directory if one exists, then
// parses the environment.
func Load() (Config, error) {
	return LoadFile(DotEnvFile)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; one that cannot be read or parsed is. Variables already set in
// the environment win over the file.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading %s: %w", path, err)
	}
	return Parse()
}

// Parse reads the environment without touching .env files.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendBridge:
		if strings.TrimSpace(c.BridgeCommand) == "" {
			errs = append(errs, errors.New("bridge command is empty"))
		}
	case BackendSim:
		if _, err := sim.ParseShape(c.SimShape); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendBridge, BackendSim))
	}

	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model is empty"))
	} else if !voice.Model(c.Model).Known() {
		errs = append(errs, fmt.Errorf("unknown model %q", c.Model))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("page size must be between 1 and 100, got %d", c.PageSize))
	}
	if c.PollAttempts < 1 {
		errs = append(errs, fmt.Errorf("poll attempts must be positive, got %d", c.PollAttempts))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.PollInterval))
	}
	if c.PagePause < 0 {
		errs = append(errs, fmt.Errorf("page pause must not be negative, got %v", c.PagePause))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	c.APIKey = RedactKey(c.APIKey)
	return c
}

// RedactKey keeps the last four characters of a key.
func RedactKey(key string) string {
	switch {
	case key == "":
		return "(unset)"
	case len(key) <= 8:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}
