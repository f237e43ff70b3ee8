package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
)

var (
	deleteYes bool

	deleteCmd = &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete voices from the account",
		Long: paragraph(fmt.Sprintf("\n%s one or more voices. Voices are removed one at a time, last given first; "+
			"a failure does not stop the rest of the batch.", keyword("Delete"))),
		Example: paragraph("voiceclone delete cosyvoice-v2-old-1a2b\nvoiceclone delete --yes a b c"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !deleteYes {
				if !isTerminal(os.Stdin) {
					return errors.New("refusing to delete without --yes when stdin is not a terminal")
				}
				ok, err := confirm(fmt.Sprintf("Delete %d voice(s)? [y/N] ", len(args)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(os.Stderr, "Aborted.")
					return nil
				}
			}

			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			summary, err := c.DeleteVoices(cmd.Context(), args)
			if err != nil {
				return err
			}
			printDeleteSummary(os.Stdout, summary)
			if len(summary.Failures) > 0 {
				return fmt.Errorf("%d of %d deletions failed", len(summary.Failures), summary.Total)
			}
			return nil
		},
	}
)

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}

func confirm(prompt string) (bool, error) {
	answer, err := readline.Line(prompt)
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("unable to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printDeleteSummary(w io.Writer, s jobs.DeleteSummary) {
	for _, id := range s.Removed {
		fmt.Fprintf(w, "deleted %s\n", id)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(w, "failed  %s: %v\n", f.VoiceID, f.Err)
	}
	fmt.Fprintf(w, "%d/%d deleted\n", s.Succeeded, s.Total)
}
