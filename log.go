package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// setupLog configures the global logger. Logs go to stderr so stdout
// stays clean for ids, tables and JSON.
func setupLog(debug bool) {
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		Level:           logLevel(debug),
		ReportTimestamp: debug,
		ReportCaller:    debug,
		TimeFormat:      time.TimeOnly,
	}))
	log.Debug("logging initialized", "level", log.GetLevel())
}

func logLevel(debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}
