package pitch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSpelling = errors.New("invalid spelling")

type InvalidSpellingError struct {
	Input  string
	Reason string
}

func (e *InvalidSpellingError) Error() string {
	return fmt.Sprintf("invalid spelling %q: %s", e.Input, e.Reason)
}

func (e *InvalidSpellingError) Is(target error) bool {
	return target == ErrInvalidSpelling
}

type Letter byte

const (
	C Letter = 'C'
	D Letter = 'D'
	E Letter = 'E'
	F Letter = 'F'
	G Letter = 'G'
	A Letter = 'A'
	B Letter = 'B'
)

// semitones above C for each natural letter
var naturals = map[Letter]int{
	C: 0,
	D: 2,
	E: 4,
	F: 5,
	G: 7,
	A: 9,
	B: 11,
}

var letterOrder = []Letter{C, D, E, F, G, A, B}

func (l Letter) Valid() bool {
	_, ok := naturals[l]
	return ok
}

// Next returns the letter n steps up the staff, wrapping after B.
func (l Letter) Next(n int) Letter {
	for i, v := range letterOrder {
		if v == l {
			return letterOrder[(i+n)%len(letterOrder)]
		}
	}
	return l
}

func (l Letter) String() string {
	return string(l)
}

type Accidental int8

const (
	None Accidental = iota
	Sharp
	Flat
	Natural
	DoubleSharp
	DoubleFlat
)

var accidentalShift = map[Accidental]int{
	None:        0,
	Natural:     0,
	Sharp:       1,
	Flat:        -1,
	DoubleSharp: 2,
	DoubleFlat:  -2,
}

var accidentalText = map[Accidental]string{
	None:        "",
	Natural:     "",
	Sharp:       "#",
	Flat:        "b",
	DoubleSharp: "##",
	DoubleFlat:  "bb",
}

func (a Accidental) Shift() int {
	return accidentalShift[a]
}

func (a Accidental) String() string {
	return accidentalText[a]
}

type PitchClass uint8

const NumPitchClasses = 12

var chromatic = [NumPitchClasses]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

func (pc PitchClass) String() string {
	if int(pc) >= NumPitchClasses {
		return fmt.Sprintf("PitchClass(%d)", uint8(pc))
	}
	return chromatic[pc]
}

// PitchClasses returns all 12 classes in chromatic order from C.
func PitchClasses() []PitchClass {
	res := make([]PitchClass, NumPitchClasses)
	for i := range res {
		res[i] = PitchClass(i)
	}
	return res
}

type NoteSpelling struct {
	Letter     Letter
	Accidental Accidental
	// NOTE: display only, never used for mapping
	Octave    int
	HasOctave bool
}

func New(l Letter, a Accidental) NoteSpelling {
	return NoteSpelling{Letter: l, Accidental: a}
}

func (n NoteSpelling) WithOctave(octave int) NoteSpelling {
	n.Octave = octave
	n.HasOctave = true
	return n
}

// Name is the spelling without octave, e.g. "Bb".
func (n NoteSpelling) Name() string {
	return n.Letter.String() + n.Accidental.String()
}

func (n NoteSpelling) String() string {
	if n.HasOctave {
		return n.Name() + strconv.Itoa(n.Octave)
	}
	return n.Name()
}

// MIDI returns the key number of the spelling, C4 = 60. The result is only
// meaningful when the spelling carries an octave.
func (n NoteSpelling) MIDI() (int, bool) {
	if !n.HasOctave || !n.Letter.Valid() {
		return 0, false
	}
	return (n.Octave+1)*12 + naturals[n.Letter] + n.Accidental.Shift(), true
}

// Normalize maps any letter+accidental pair onto its canonical sharp-spelled
// pitch class. B# becomes C, Cb becomes B, Db becomes C# and so on.
func Normalize(n NoteSpelling) (PitchClass, error) {
	base, ok := naturals[n.Letter]
	if !ok {
		return 0, &InvalidSpellingError{Input: n.Name(), Reason: "letter must be A-G"}
	}
	shift, ok := accidentalShift[n.Accidental]
	if !ok {
		return 0, &InvalidSpellingError{Input: n.Name(), Reason: "unknown accidental"}
	}
	return PitchClass(((base+shift)%NumPitchClasses + NumPitchClasses) % NumPitchClasses), nil
}

func MustNormalize(n NoteSpelling) PitchClass {
	pc, err := Normalize(n)
	if err != nil {
		panic(err)
	}
	return pc
}

var flatSpellings = [NumPitchClasses]NoteSpelling{
	{Letter: C}, {Letter: D, Accidental: Flat}, {Letter: D}, {Letter: E, Accidental: Flat},
	{Letter: E}, {Letter: F}, {Letter: G, Accidental: Flat}, {Letter: G},
	{Letter: A, Accidental: Flat}, {Letter: A}, {Letter: B, Accidental: Flat}, {Letter: B},
}

var sharpSpellings = [NumPitchClasses]NoteSpelling{
	{Letter: C}, {Letter: C, Accidental: Sharp}, {Letter: D}, {Letter: D, Accidental: Sharp},
	{Letter: E}, {Letter: F}, {Letter: F, Accidental: Sharp}, {Letter: G},
	{Letter: G, Accidental: Sharp}, {Letter: A}, {Letter: A, Accidental: Sharp}, {Letter: B},
}

// Spell returns the plain sharp or flat spelling of a pitch class.
func Spell(pc PitchClass, preferFlats bool) NoteSpelling {
	if preferFlats {
		return flatSpellings[pc%NumPitchClasses]
	}
	return sharpSpellings[pc%NumPitchClasses]
}

// FromMIDI spells a MIDI key number with octave, C4 = 60.
func FromMIDI(key uint8, preferFlats bool) NoteSpelling {
	return Spell(PitchClass(key%NumPitchClasses), preferFlats).WithOctave(int(key)/12 - 1)
}

// OctaveFor returns the octave a spelling needs to sound as the given MIDI key.
// B#3 and C4 are both 60, Cb4 and B3 are both 59.
func OctaveFor(n NoteSpelling, key uint8) int {
	return (int(key)-naturals[n.Letter]-n.Accidental.Shift())/12 - 1
}

// Parse reads a note name such as "C", "f#4", "Bb3", "E♭", "Gn", "Fx" or "Dbb".
func Parse(s string) (NoteSpelling, error) {
	var n NoteSpelling
	text := strings.TrimSpace(s)
	if text == "" {
		return n, &InvalidSpellingError{Input: s, Reason: "empty"}
	}

	n.Letter = Letter(strings.ToUpper(text[:1])[0])
	if !n.Letter.Valid() {
		return n, &InvalidSpellingError{Input: s, Reason: "letter must be A-G"}
	}
	rest := text[1:]

	acc, rest := parseAccidental(rest)
	n.Accidental = acc

	if rest != "" {
		// only a minus sign is octave notation, as in C-1
		octave, err := strconv.Atoi(rest)
		if err != nil || rest[0] == '+' {
			return n, &InvalidSpellingError{Input: s, Reason: "unrecognized suffix " + strconv.Quote(rest)}
		}
		n = n.WithOctave(octave)
	}
	return n, nil
}

func MustParse(s string) NoteSpelling {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseAll parses a list of note names separated by commas and/or whitespace.
func ParseAll(s string) ([]NoteSpelling, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	res := make([]NoteSpelling, 0, len(fields))
	for _, f := range fields {
		n, err := Parse(f)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

// longest prefixes first
var accidentalPrefixes = []struct {
	text string
	acc  Accidental
}{
	{"##", DoubleSharp},
	{"♯♯", DoubleSharp},
	{"𝄪", DoubleSharp},
	{"x", DoubleSharp},
	{"bb", DoubleFlat},
	{"♭♭", DoubleFlat},
	{"𝄫", DoubleFlat},
	{"#", Sharp},
	{"♯", Sharp},
	{"b", Flat},
	{"♭", Flat},
	{"n", Natural},
	{"♮", Natural},
}

func parseAccidental(s string) (Accidental, string) {
	for _, p := range accidentalPrefixes {
		if strings.HasPrefix(s, p.text) {
			return p.acc, s[len(p.text):]
		}
	}
	return None, s
}
