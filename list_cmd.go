package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/voiceclone/internal/voice"
)

var (
	listJSON bool

	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the voices on the account",
		Long:    paragraph(fmt.Sprintf("\n%s every voice on the account, following pagination to the end.", keyword("List"))),
		Example: paragraph("voiceclone list\nvoiceclone list --json"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			h, err := c.StartListing(cmd.Context())
			if err != nil {
				return err
			}
			records, err := follow(os.Stderr, h, listJSON)
			if err != nil {
				return err
			}
			if listJSON {
				return writeJSON(os.Stdout, records)
			}
			return writeRecords(os.Stdout, records, isTerminal(os.Stdout))
		},
	}
)

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print voices as JSON")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("unable to write json: %w", err)
	}
	return nil
}

// writeRecords prints a styled table on a terminal, tab-separated
// columns otherwise.
func writeRecords(w io.Writer, records []voice.Record, styled bool) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No voices.")
		return err
	}

	if !styled {
		for _, r := range records {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.VoiceID, r.Status, r.ModelHint, r.CreatedAt); err != nil {
				return fmt.Errorf("unable to write to writer: %w", err)
			}
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(faint).
		Headers("VOICE ID", "STATUS", "MODEL (GUESSED)", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 {
				return cellStyle.Inherit(statusStyle(records[row].Status))
			}
			return cellStyle
		})
	for _, r := range records {
		t.Row(r.VoiceID, r.Status.Description(), string(r.ModelHint), r.CreatedAt)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
