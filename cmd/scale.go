package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jsphweid/musan/midi"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/spf13/cobra"
)

type scaleOptions struct {
	all    bool
	midi   string
	octave int
	bpm    float64
}

var scaleOpts scaleOptions

func init() {
	rootCmd.AddCommand(scaleCmd)
	rootCmd.AddCommand(keysCmd)
	flags := scaleCmd.Flags()
	flags.BoolVarP(&scaleOpts.all, "all", "a", false, "print every supported key")
	flags.StringVar(&scaleOpts.midi, "midi", "", "also write the scale to this MIDI file")
	flags.IntVar(&scaleOpts.octave, "octave", 4, "octave of the tonic in the MIDI file")
	flags.Float64Var(&scaleOpts.bpm, "bpm", 100, "tempo of the MIDI file")
}

var scaleCmd = &cobra.Command{
	Use:   "scale [key]",
	Short: "Prints the major scale of a key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printScales(cmd.OutOrStdout(), scaleOpts, args)
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Lists the supported keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printKeys(cmd.OutOrStdout())
	},
}

func printScales(w io.Writer, opts scaleOptions, args []string) error {
	var keys []scale.Key
	switch {
	case opts.all && len(args) > 0:
		return errors.New("give a key or --all, not both")
	case opts.all:
		if opts.midi != "" {
			return errors.New("--midi needs a single key")
		}
		keys = scale.Keys()
	default:
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		k, err := resolveKey(name)
		if err != nil {
			return err
		}
		keys = []scale.Key{k}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", syllableHeader())
	for _, k := range keys {
		s, err := scale.Build(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%v major\t%s\n", k, strings.Join(s.Names(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.midi != "" {
		s, _ := scale.Build(keys[0])
		if err := midi.WriteScaleFile(opts.midi, s, opts.octave, opts.bpm); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %v\n", opts.midi)
	}
	return nil
}

func syllableHeader() string {
	var res []string
	for _, s := range solfa.Syllables() {
		res = append(res, s.String())
	}
	return strings.Join(res, "\t")
}

func printKeys(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range scale.Keys() {
		sig := k.Signature()
		switch {
		case sig == 1:
			fmt.Fprintf(tw, "%v\t1 sharp\n", k)
		case sig == -1:
			fmt.Fprintf(tw, "%v\t1 flat\n", k)
		case sig > 0:
			fmt.Fprintf(tw, "%v\t%d sharps\n", k, sig)
		case sig < 0:
			fmt.Fprintf(tw, "%v\t%d flats\n", k, -sig)
		default:
			fmt.Fprintf(tw, "%v\tno accidentals\n", k)
		}
	}
	tw.Flush()
}
