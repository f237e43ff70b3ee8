// Package main provides the entry point for the voiceclone CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voiceclone/internal/config"
	"github.com/dgnsrekt/voiceclone/internal/jobs"
	"github.com/dgnsrekt/voiceclone/internal/remote"
	"github.com/dgnsrekt/voiceclone/internal/remote/bridge"
	"github.com/dgnsrekt/voiceclone/internal/remote/sim"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "voiceclone",
		Short: "Clone voices and synthesize speech with a remote service",
		Long: paragraph(
			fmt.Sprintf("\n%s voices from a public audio sample, then %s speech with them.", keyword("Clone"), keyword("synthesize")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

// viperOverrides maps config-file keys and bound flags onto Config fields.
// Environment variables are read by config.Load; these win over them only
// when set explicitly.
var viperOverrides = []struct {
	key   string
	apply func(*config.Config)
}{
	{"backend", func(c *config.Config) { c.Backend = viper.GetString("backend") }},
	{"bridge", func(c *config.Config) { c.BridgeCommand = viper.GetString("bridge") }},
	{"bridge_timeout", func(c *config.Config) { c.BridgeTimeout = viper.GetDuration("bridge_timeout") }},
	{"model", func(c *config.Config) { c.Model = viper.GetString("model") }},
	{"language_hints", func(c *config.Config) { c.LanguageHints = viper.GetStringSlice("language_hints") }},
	{"audio_format", func(c *config.Config) { c.AudioFormat = viper.GetString("audio_format") }},
	{"page_size", func(c *config.Config) { c.PageSize = viper.GetInt("page_size") }},
	{"page_pause", func(c *config.Config) { c.PagePause = viper.GetDuration("page_pause") }},
	{"poll_interval", func(c *config.Config) { c.PollInterval = viper.GetDuration("poll_interval") }},
	{"poll_attempts", func(c *config.Config) { c.PollAttempts = viper.GetInt("poll_attempts") }},
	{"rpm", func(c *config.Config) { c.RequestsPerMinute = viper.GetInt("rpm") }},
	{"burst", func(c *config.Config) { c.Burst = viper.GetInt("burst") }},
	{"sim.training_polls", func(c *config.Config) { c.SimTrainingPolls = viper.GetInt("sim.training_polls") }},
	{"sim.fail_every", func(c *config.Config) { c.SimFailEvery = viper.GetInt("sim.fail_every") }},
	{"sim.shape", func(c *config.Config) { c.SimShape = viper.GetString("sim.shape") }},
}

func validateOptions(cmd *cobra.Command) error {
	setupLog(viper.GetBool("debug"))

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	for _, o := range viperOverrides {
		if viper.IsSet(o.key) {
			o.apply(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Debug("configuration loaded", "command", cmd.Name(), "backend", cfg.Backend, "model", cfg.Model)
	return nil
}

// newClient builds the configured backend, throttled.
func newClient(c config.Config) (remote.Client, error) {
	var client remote.Client
	switch c.Backend {
	case config.BackendSim:
		shape, err := sim.ParseShape(c.SimShape)
		if err != nil {
			return nil, err
		}
		client = sim.New(sim.Config{
			TrainingPolls: c.SimTrainingPolls,
			FailEvery:     c.SimFailEvery,
			Shape:         shape,
		})
		log.Warn("Using the simulated backend; nothing is sent to the service")
	case config.BackendBridge:
		argv, err := shlex.Split(c.BridgeCommand)
		if err != nil {
			return nil, fmt.Errorf("unable to parse bridge command: %w", err)
		}
		if len(argv) == 0 {
			return nil, bridge.ErrNoCommand
		}
		b, err := bridge.New(bridge.Config{
			Command: argv[0],
			Args:    argv[1:],
			APIKey:  c.APIKey,
			Timeout: c.BridgeTimeout,
			Logger:  log.Default().WithPrefix("bridge"),
		})
		if err != nil {
			if errors.Is(err, remote.ErrMissingCredential) {
				return nil, fmt.Errorf("%w\n\nExport your key or add it to a .env file:\n  DASHSCOPE_API_KEY=sk-...", err)
			}
			return nil, err
		}
		client = b
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
	return remote.Limit(client, c.RequestsPerMinute, c.Burst), nil
}

// newCoordinator wires the configured backend into a job coordinator.
func newCoordinator(c config.Config) (*jobs.Coordinator, error) {
	client, err := newClient(c)
	if err != nil {
		return nil, err
	}
	return jobs.New(client,
		jobs.WithLogger(log.Default()),
		jobs.WithPageSize(c.PageSize),
		jobs.WithPagePause(c.PagePause),
		jobs.WithPollInterval(c.PollInterval),
		jobs.WithPollAttempts(c.PollAttempts),
		jobs.WithLanguageHints(c.LanguageHints),
		jobs.WithAudioFormat(c.AudioFormat),
		jobs.WithDefaultModel(voice.Model(c.Model)),
	), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if hint := retryHint(err); hint != "" {
			log.Info(hint)
		}
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.String("backend", config.BackendBridge, "remote backend: bridge or sim")
	flags.String("bridge", "", "bridge command, e.g. \"python3 dashscope_bridge.py\"")
	flags.String("model", "", "default synthesis model ("+modelNames()+")")
	flags.Int("rpm", 0, "maximum remote requests per minute (0 keeps the configured value)")
	flags.Bool("debug", false, "enable debug logging")

	// Config bindings
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("bridge", flags.Lookup("bridge"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("rpm", flags.Lookup("rpm"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(listCmd, enrollCmd, synthCmd, deleteCmd, shellCmd, configCmd, manCmd)
}

func modelNames() string {
	var s string
	for i, m := range voice.Models {
		if i > 0 {
			s += ", "
		}
		s += string(m)
	}
	return s
}

// tryLoadConfigFromDefaultPlaces reads voiceclone.yaml from the user's
// config directories if one exists. Nothing is ever written there.
func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voiceclone")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		log.Warn("Could not find configuration directory", "err", err)
		dirs = nil
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voiceclone")}, dirs...)
	}

	if c := os.Getenv("VOICECLONE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voiceclone")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voiceclone")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
	}
}
