package scale

import (
	"fmt"
	"strings"

	"github.com/jsphweid/musan/pitch"
)

const Degrees = 7

// semitones between successive degrees of a major scale, wrapping to the octave
var majorSteps = [Degrees]int{2, 2, 1, 2, 2, 2, 1}

// spelled the way each key signature writes them
var spellingTable = [numKeys][Degrees]string{
	C:      {"C", "D", "E", "F", "G", "A", "B"},
	G:      {"G", "A", "B", "C", "D", "E", "F#"},
	D:      {"D", "E", "F#", "G", "A", "B", "C#"},
	A:      {"A", "B", "C#", "D", "E", "F#", "G#"},
	E:      {"E", "F#", "G#", "A", "B", "C#", "D#"},
	B:      {"B", "C#", "D#", "E", "F#", "G#", "A#"},
	FSharp: {"F#", "G#", "A#", "B", "C#", "D#", "E#"},
	CSharp: {"C#", "D#", "E#", "F#", "G#", "A#", "B#"},
	F:      {"F", "G", "A", "Bb", "C", "D", "E"},
	BFlat:  {"Bb", "C", "D", "Eb", "F", "G", "A"},
	EFlat:  {"Eb", "F", "G", "Ab", "Bb", "C", "D"},
	AFlat:  {"Ab", "Bb", "C", "Db", "Eb", "F", "G"},
	DFlat:  {"Db", "Eb", "F", "Gb", "Ab", "Bb", "C"},
	GFlat:  {"Gb", "Ab", "Bb", "Cb", "Db", "Eb", "F"},
	CFlat:  {"Cb", "Db", "Eb", "Fb", "Gb", "Ab", "Bb"},
}

type Scale struct {
	Key   Key
	Notes [Degrees]pitch.NoteSpelling

	classes [Degrees]pitch.PitchClass
}

// built once at init, read-only afterwards
var scales [numKeys]Scale

func init() {
	for k := Key(0); k < numKeys; k++ {
		s, err := fromTable(k)
		if err != nil {
			panic(err)
		}
		scales[k] = s
		bySignature[k.Signature()] = k
	}
	if len(bySignature) != int(numKeys) {
		panic("scale: key signatures are not unique")
	}
}

func fromTable(k Key) (Scale, error) {
	s := Scale{Key: k}
	names := spellingTable[k]
	for i, name := range names {
		n, err := pitch.Parse(name)
		if err != nil {
			return s, fmt.Errorf("scale %v degree %d: %w", k, i, err)
		}
		s.Notes[i] = n
		s.classes[i] = pitch.MustNormalize(n)
	}
	if err := validate(s); err != nil {
		return s, fmt.Errorf("scale %v: %w", k, err)
	}
	return s, nil
}

func validate(s Scale) error {
	if s.Notes[0].Name() != s.Key.String() {
		return fmt.Errorf("tonic is %v", s.Notes[0])
	}

	seen := make(map[pitch.PitchClass]bool, Degrees)
	flats, sharps := 0, 0
	for i, n := range s.Notes {
		if seen[s.classes[i]] {
			return fmt.Errorf("pitch class %v repeated", s.classes[i])
		}
		seen[s.classes[i]] = true

		if n.Letter != s.Notes[0].Letter.Next(i) {
			return fmt.Errorf("degree %d is spelled %v", i, n)
		}

		switch n.Accidental {
		case pitch.Sharp:
			sharps++
		case pitch.Flat:
			flats++
		}

		next := s.classes[(i+1)%Degrees]
		step := (int(next) - int(s.classes[i]) + pitch.NumPitchClasses) % pitch.NumPitchClasses
		if step != majorSteps[i] {
			return fmt.Errorf("step %d is %d semitones", i, step)
		}
	}

	if sharps > 0 && flats > 0 {
		return fmt.Errorf("mixes sharps and flats")
	}
	if sharps-flats != s.Key.Signature() {
		return fmt.Errorf("has %d sharps and %d flats", sharps, flats)
	}
	return nil
}

// Build returns the diatonic major scale for the key, spelled per its key
// signature.
func Build(k Key) (Scale, error) {
	if !k.Valid() {
		return Scale{}, &UnknownKeyError{Input: k.String()}
	}
	return scales[k], nil
}

func BuildByName(name string) (Scale, error) {
	k, err := ParseKey(name)
	if err != nil {
		return Scale{}, err
	}
	return Build(k)
}

// Degree returns the 0-based scale degree of the pitch class, or false when the
// pitch class is not diatonic to the key.
func (s Scale) Degree(pc pitch.PitchClass) (int, bool) {
	for i, c := range s.classes {
		if c == pc {
			return i, true
		}
	}
	return 0, false
}

func (s Scale) PitchClasses() []pitch.PitchClass {
	return append([]pitch.PitchClass(nil), s.classes[:]...)
}

func (s Scale) Names() []string {
	res := make([]string, Degrees)
	for i, n := range s.Notes {
		res[i] = n.Name()
	}
	return res
}

func (s Scale) String() string {
	return strings.Join(s.Names(), " ")
}

// Spell picks a display spelling for a pitch class in this key: the scale's own
// spelling when diatonic, otherwise a plain sharp or flat following the key
// signature.
func (s Scale) Spell(pc pitch.PitchClass) pitch.NoteSpelling {
	if i, ok := s.Degree(pc); ok {
		return s.Notes[i]
	}
	return pitch.Spell(pc, s.Key.UsesFlats())
}

// SpellMIDI spells a MIDI key number in this key, carrying the octave.
func (s Scale) SpellMIDI(key uint8) pitch.NoteSpelling {
	n := s.Spell(pitch.PitchClass(key % pitch.NumPitchClasses))
	return n.WithOctave(pitch.OctaveFor(n, key))
}
