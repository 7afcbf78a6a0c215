package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/jsphweid/musan/util"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
)

type listenOptions struct {
	key    string
	port   int
	style  string
	window time.Duration
}

var listenOpts listenOptions

func init() {
	rootCmd.AddCommand(listenCmd)
	flags := listenCmd.Flags()
	flags.StringVarP(&listenOpts.key, "key", "k", "", "major key, defaults to $DEFAULT_KEY or C")
	flags.IntVarP(&listenOpts.port, "port", "p", 0, "MIDI input port number")
	flags.StringVarP(&listenOpts.style, "style", "s", "bracket", "how to show notes outside the key: bracket or question")
	flags.DurationVar(&listenOpts.window, "window", 80*time.Millisecond, "notes struck within this window count as one chord")
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Names notes played on a MIDI keyboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listen(cmd.OutOrStdout(), listenOpts)
	},
}

const maxLineTokens = 16

// chordLine collects struck notes and prints them as solfa, one token per
// chord, keeping the most recent tokens on a single line.
type chordLine struct {
	mu      sync.Mutex
	scale   scale.Scale
	style   solfa.Style
	pending map[uint8]bool
	tokens  []string
	out     io.Writer
}

func newChordLine(out io.Writer, sc scale.Scale, style solfa.Style) *chordLine {
	return &chordLine{
		scale:   sc,
		style:   style,
		pending: make(map[uint8]bool),
		out:     out,
	}
}

func (c *chordLine) Strike(key uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = true
}

// Flush turns the pending notes into one token, lowest note first, e.g.
// "do+mi+so" for a tonic triad.
func (c *chordLine) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return
	}

	var parts []string
	for _, key := range util.SortedKeys(c.pending) {
		r, err := solfa.Map(c.scale.SpellMIDI(key), c.scale.Key)
		if err != nil {
			continue
		}
		parts = append(parts, r.Token(c.style))
	}
	c.pending = make(map[uint8]bool)

	c.tokens = util.Tail(append(c.tokens, strings.Join(parts, "+")), maxLineTokens)
	fmt.Fprintf(c.out, "\r\033[K%s", strings.Join(c.tokens, " "))
}

func (c *chordLine) Line() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.tokens, " ")
}

func listen(out io.Writer, opts listenOptions) error {
	k, err := resolveKey(opts.key)
	if err != nil {
		return err
	}
	style, err := solfa.ParseStyle(opts.style)
	if err != nil {
		return err
	}
	sc, _ := scale.Build(k)

	defer gomidi.CloseDriver()
	in, err := gomidi.InPort(opts.port)
	if err != nil {
		return fmt.Errorf("can't find MIDI input %d: %w", opts.port, err)
	}

	line := newChordLine(out, sc, style)
	debounced := debounce.New(opts.window)

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			line.Strike(key)
			debounced(line.Flush)
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	fmt.Fprintf(out, "Listening on %v in %v major, ctrl-c to stop\n", in, k)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()

	line.Flush()
	fmt.Fprintln(out)
	return nil
}
