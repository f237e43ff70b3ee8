package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

var (
	enrollURL    string
	enrollPrefix string
	enrollCopy   bool

	enrollCmd = &cobra.Command{
		Use:   "enroll",
		Short: "Clone a voice from a public audio sample",
		Long: paragraph(fmt.Sprintf("\n%s a new voice from an audio file reachable over http(s), then wait until it has trained. "+
			"Training can take several minutes; if the wait runs out, the voice keeps training and shows up in %s later.",
			keyword("Clone"), keyword("voiceclone list"))),
		Example: paragraph("voiceclone enroll --url https://example.com/me.wav --prefix myvoice\nvoiceclone --model cosyvoice-v2 enroll --url https://example.com/me.wav --prefix demo --copy"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}
			h, err := c.StartEnrollment(cmd.Context(), jobs.EnrollmentRequest{
				AudioURL:    enrollURL,
				Prefix:      enrollPrefix,
				TargetModel: voice.Model(cfg.Model),
			})
			if err != nil {
				return err
			}

			id, err := follow(os.Stderr, h, false)
			if err != nil {
				return err
			}
			fmt.Println(id)

			if enrollCopy {
				if err := clipboard.WriteAll(id); err != nil {
					log.Warn("Could not copy voice id to clipboard", "err", err)
				} else {
					log.Info("Voice id copied to clipboard")
				}
			}
			return nil
		},
	}
)

func init() {
	enrollCmd.Flags().StringVar(&enrollURL, "url", "", "public http(s) url of the audio sample")
	enrollCmd.Flags().StringVar(&enrollPrefix, "prefix", "", fmt.Sprintf("voice name prefix (alphanumeric, up to %d characters)", jobs.MaxPrefixLen))
	enrollCmd.Flags().BoolVar(&enrollCopy, "copy", false, "copy the new voice id to the clipboard")
	_ = enrollCmd.MarkFlagRequired("url")
	_ = enrollCmd.MarkFlagRequired("prefix")
}
