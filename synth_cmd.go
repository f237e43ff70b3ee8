package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voiceclone/internal/jobs"
	"github.com/dgnsrekt/voiceclone/internal/voice"
)

var (
	synthVoice  string
	synthOut    string
	synthVolume int
	synthRate   float64

	synthCmd = &cobra.Command{
		Use:   "synth [TEXT|-]",
		Short: "Synthesize text with a cloned voice",
		Long: paragraph(fmt.Sprintf("\n%s text with a cloned voice and save the audio. Text comes from the arguments, "+
			"or from stdin when it is a pipe or the argument is %s.", keyword("Speak"), keyword("-"))),
		Example: paragraph("voiceclone synth --voice cosyvoice-v2-me-1a2b --out ~/out/hello.mp3 \"Hello there\"\necho hi | voiceclone synth --voice cosyvoice-v2-me-1a2b --out hi.mp3"),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := synthText(args, os.Stdin)
			if err != nil {
				return err
			}

			c, err := newCoordinator(cfg)
			if err != nil {
				return err
			}

			// an explicit --model wins over the hint in the voice id
			var model voice.Model
			if viper.IsSet("model") {
				model = voice.Model(cfg.Model)
			}
			if _, err := c.Select(synthVoice, model); err != nil {
				return err
			}
			req, err := c.NewSynthesisRequest(text, synthOut, synthVolume, synthRate)
			if err != nil {
				return err
			}

			h, err := c.StartSynthesis(cmd.Context(), req)
			if err != nil {
				return err
			}
			path, err := follow(os.Stderr, h, false)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
)

func init() {
	synthCmd.Flags().StringVar(&synthVoice, "voice", "", "voice id to speak with")
	synthCmd.Flags().StringVarP(&synthOut, "out", "o", "", "output audio file path")
	synthCmd.Flags().IntVar(&synthVolume, "volume", jobs.DefaultVolume, "volume (0-100)")
	synthCmd.Flags().Float64Var(&synthRate, "rate", jobs.DefaultSpeechRate, "speech rate (0.5-2.0)")
	_ = synthCmd.MarkFlagRequired("voice")
	_ = synthCmd.MarkFlagRequired("out")
}

// synthText takes the text from args, or reads stdin for "-" or when no
// args are given and stdin is a pipe.
func synthText(args []string, stdin *os.File) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		return readText(stdin)
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if yes, err := stdinIsPipe(stdin); err != nil {
		return "", err
	} else if yes {
		return readText(stdin)
	}
	return "", errors.New("no text given: pass it as arguments or pipe it on stdin")
}

func readText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func stdinIsPipe(f *os.File) (bool, error) {
	stat, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
