package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/voiceclone/internal/voice"
)

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	faint     = lipgloss.NewStyle().Faint(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// statusStyle colours a voice status for tables.
func statusStyle(s voice.Status) lipgloss.Style {
	switch s {
	case voice.StatusReady:
		return okStyle
	case voice.StatusFailed, voice.StatusUndeployed:
		return errStyle
	default:
		return warnStyle
	}
}
