package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jsphweid/musan/constants"
	"github.com/jsphweid/musan/detect"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/jsphweid/musan/transcript"
	"github.com/spf13/cobra"
)

type transcribeOptions struct {
	key    string
	style  string
	file   string
	report bool
}

var transcribeOpts transcribeOptions

func init() {
	rootCmd.AddCommand(transcribeCmd)
	flags := transcribeCmd.Flags()
	flags.StringVarP(&transcribeOpts.key, "key", "k", "", "major key, defaults to $DEFAULT_KEY or C")
	flags.StringVarP(&transcribeOpts.style, "style", "s", "bracket", "how to show notes outside the key: bracket or question")
	flags.StringVarP(&transcribeOpts.file, "file", "f", "", "read notes from a MIDI file or a scanned score")
	flags.BoolVarP(&transcribeOpts.report, "report", "r", false, "print the full report")
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [notes...]",
	Short: "Names notes in solfa",
	Long: `Names notes in solfa. Notes are given as arguments (e.g. "G4 A4 B4" or
"C,D,Eb") or read from a file with --file.`,
	Example: `  musan transcribe --key G G A B C D F#
  musan transcribe --key Eb --file melody.mid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transcribe(cmd.Context(), cmd.OutOrStdout(), transcribeOpts, args)
	},
}

func resolveKey(name string) (scale.Key, error) {
	if strings.TrimSpace(name) == "" {
		name = constants.GetDefaultKey()
	}
	return scale.ParseKey(name)
}

func transcribe(ctx context.Context, w io.Writer, opts transcribeOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	k, err := resolveKey(opts.key)
	if err != nil {
		return err
	}
	style, err := solfa.ParseStyle(opts.style)
	if err != nil {
		return err
	}

	var notes []pitch.NoteSpelling
	var source string
	switch {
	case opts.file != "" && len(args) > 0:
		return errors.New("give notes or --file, not both")
	case opts.file != "":
		fallback := detect.FromCommand(constants.GetRecognizerCommand(), constants.GetRecognizerTimeout())
		d, err := detect.ForPath(opts.file, fallback)
		if err != nil {
			return err
		}
		notes, err = d.Detect(ctx, opts.file, k)
		if err != nil {
			return err
		}
		source = filepath.Base(opts.file)
	case len(args) > 0:
		notes, err = pitch.ParseAll(strings.Join(args, " "))
		if err != nil {
			return err
		}
	default:
		return errors.New("no notes given")
	}

	t, err := transcript.New(source, notes, k, style)
	if err != nil {
		return err
	}

	if opts.report {
		fmt.Fprint(w, transcript.Report(t))
		return nil
	}
	fmt.Fprintln(w, t.Notation())
	return nil
}
