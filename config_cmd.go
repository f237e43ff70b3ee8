package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voiceclone/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Show the effective configuration",
	Long:    paragraph(fmt.Sprintf("\n%s the configuration voiceclone would run with, after reading the environment, a .env file, the config file and flags. The API key is redacted.", keyword("Show"))),
	Example: paragraph("voiceclone config\nvoiceclone config --config path/to/voiceclone.yaml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return printConfig(os.Stdout, cfg.Redacted(), viper.ConfigFileUsed())
	},
}

func printConfig(w io.Writer, c config.Config, file string) error {
	if file == "" {
		file = "(none)"
	}
	rows := [][2]string{
		{"config file", file},
		{"api key", c.APIKey},
		{"backend", c.Backend},
		{"bridge", c.BridgeCommand},
		{"bridge timeout", c.BridgeTimeout.String()},
		{"model", c.Model},
		{"language hints", strings.Join(c.LanguageHints, ",")},
		{"audio format", c.AudioFormat},
		{"page size", fmt.Sprint(c.PageSize)},
		{"page pause", c.PagePause.String()},
		{"poll interval", c.PollInterval.String()},
		{"poll attempts", fmt.Sprint(c.PollAttempts)},
		{"requests/minute", fmt.Sprint(c.RequestsPerMinute)},
		{"burst", fmt.Sprint(c.Burst)},
	}
	if c.Backend == config.BackendSim {
		rows = append(rows,
			[2]string{"sim training polls", fmt.Sprint(c.SimTrainingPolls)},
			[2]string{"sim fail every", fmt.Sprint(c.SimFailEvery)},
			[2]string{"sim shape", c.SimShape},
		)
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", r[0]+":", r[1]); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
