package scale

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsphweid/musan/pitch"
)

var ErrUnknownKey = errors.New("unknown key")

type UnknownKeyError struct {
	Input string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key %q: expected one of %s", e.Input, strings.Join(KeyNames(), ", "))
}

func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrUnknownKey
}

// Key is one of the 15 conventional major keys. The zero value is C major.
type Key int8

const (
	C Key = iota
	G
	D
	A
	E
	B
	FSharp
	CSharp
	F
	BFlat
	EFlat
	AFlat
	DFlat
	GFlat
	CFlat

	numKeys
)

var keyNames = [numKeys]string{
	C:      "C",
	G:      "G",
	D:      "D",
	A:      "A",
	E:      "E",
	B:      "B",
	FSharp: "F#",
	CSharp: "C#",
	F:      "F",
	BFlat:  "Bb",
	EFlat:  "Eb",
	AFlat:  "Ab",
	DFlat:  "Db",
	GFlat:  "Gb",
	CFlat:  "Cb",
}

// number of sharps (positive) or flats (negative) in the key signature
var signatures = [numKeys]int{
	C:      0,
	G:      1,
	D:      2,
	A:      3,
	E:      4,
	B:      5,
	FSharp: 6,
	CSharp: 7,
	F:      -1,
	BFlat:  -2,
	EFlat:  -3,
	AFlat:  -4,
	DFlat:  -5,
	GFlat:  -6,
	CFlat:  -7,
}

func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}

func (k Key) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Key(%d)", int8(k))
	}
	return keyNames[k]
}

func (k Key) Signature() int {
	if !k.Valid() {
		return 0
	}
	return signatures[k]
}

func (k Key) Tonic() pitch.NoteSpelling {
	if !k.Valid() {
		return pitch.NoteSpelling{}
	}
	return scales[k].Notes[0]
}

func (k Key) UsesFlats() bool {
	return k.Signature() < 0
}

func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &UnknownKeyError{Input: k.String()}
	}
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Keys returns every supported key around the circle of fifths, from Cb to C#.
func Keys() []Key {
	res := make([]Key, 0, numKeys)
	for sig := -7; sig <= 7; sig++ {
		res = append(res, bySignature[sig])
	}
	return res
}

func KeyNames() []string {
	var res []string
	for _, k := range Keys() {
		res = append(res, k.String())
	}
	return res
}

var bySignature = make(map[int]Key, numKeys)

var suffixes = []string{"major", "maj", "M"}

// ParseKey reads a major key name such as "G", "f#", "B♭", "Eb major" or "DM".
func ParseKey(s string) (Key, error) {
	text := strings.TrimSpace(s)
	for _, suffix := range suffixes {
		if strings.HasSuffix(text, suffix) && len(text) > len(suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
			break
		}
	}

	n, err := pitch.Parse(text)
	if err != nil || n.HasOctave {
		return C, &UnknownKeyError{Input: s}
	}
	for k := Key(0); k < numKeys; k++ {
		if keyNames[k] == n.Name() {
			return k, nil
		}
	}
	return C, &UnknownKeyError{Input: s}
}
