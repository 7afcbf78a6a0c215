package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	ErrNoNotes   = errors.New("no notes found")
	ErrMalformed = errors.New("malformed midi file")
)

func ReadMidiFile(filepath string) (*smf.SMF, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	return Read(bytes.NewReader(dat))
}

func Read(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return res, nil
}

type Onset struct {
	Offset int64
	Key    uint8
}

// NoteOns collects every note-on across all tracks, ordered by time and then
// by key so chords read bottom up.
func NoteOns(s *smf.SMF) []Onset {
	var res []Onset
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			// note-on with velocity 0 is reported as a note-off
			if event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				res = append(res, Onset{Offset: s.TimeAt(absTicks), Key: key})
			}
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Offset != res[j].Offset {
			return res[i].Offset < res[j].Offset
		}
		return res[i].Key < res[j].Key
	})
	return res
}

// Spellings returns the melody of the file spelled in the given key.
func Spellings(s *smf.SMF, k scale.Key) ([]pitch.NoteSpelling, error) {
	sc, err := scale.Build(k)
	if err != nil {
		return nil, err
	}

	ons := NoteOns(s)
	if len(ons) == 0 {
		return nil, ErrNoNotes
	}

	res := make([]pitch.NoteSpelling, len(ons))
	for i, on := range ons {
		res[i] = sc.SpellMIDI(on.Key)
	}
	return res, nil
}

func ReadSpellings(path string, k scale.Key) ([]pitch.NoteSpelling, error) {
	s, err := ReadMidiFile(path)
	if err != nil {
		return nil, err
	}
	return Spellings(s, k)
}
