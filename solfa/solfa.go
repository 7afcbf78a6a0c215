package solfa

import (
	"fmt"
	"strings"

	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
)

type Syllable uint8

const (
	Do Syllable = iota
	Re
	Mi
	Fa
	So
	La
	Ti
)

var syllables = [scale.Degrees]string{"do", "re", "mi", "fa", "so", "la", "ti"}

func (s Syllable) String() string {
	if int(s) >= len(syllables) {
		return fmt.Sprintf("Syllable(%d)", uint8(s))
	}
	return syllables[s]
}

// Syllables returns do through ti in degree order.
func Syllables() []Syllable {
	res := make([]Syllable, scale.Degrees)
	for i := range res {
		res[i] = Syllable(i)
	}
	return res
}

// Result is either a resolved syllable or an unresolved pitch that carries
// the original spelling so callers can show which notes fell outside the key.
type Result struct {
	Spelling pitch.NoteSpelling
	Syllable Syllable
	Resolved bool
}

func Resolved(n pitch.NoteSpelling, s Syllable) Result {
	return Result{Spelling: n, Syllable: s, Resolved: true}
}

func Unresolved(n pitch.NoteSpelling) Result {
	return Result{Spelling: n}
}

type Style int

const (
	// StyleBracket renders unresolved pitches as their bracketed spelling, e.g. "[F#]".
	StyleBracket Style = iota
	// StyleQuestion renders unresolved pitches as "?".
	StyleQuestion
)

func (s Style) String() string {
	switch s {
	case StyleQuestion:
		return "question"
	default:
		return "bracket"
	}
}

func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bracket", "brackets":
		return StyleBracket, nil
	case "question", "?":
		return StyleQuestion, nil
	}
	return StyleBracket, fmt.Errorf("unknown style %q: expected bracket or question", s)
}

func (r Result) Token(style Style) string {
	if r.Resolved {
		return r.Syllable.String()
	}
	if style == StyleQuestion {
		return "?"
	}
	return "[" + r.Spelling.Name() + "]"
}

func (r Result) String() string {
	return r.Token(StyleBracket)
}

// Map names the pitch by its solfa syllable in the given key. A pitch outside
// the key's diatonic set is not an error, it comes back unresolved.
func Map(n pitch.NoteSpelling, k scale.Key) (Result, error) {
	pc, err := pitch.Normalize(n)
	if err != nil {
		return Result{}, err
	}
	s, err := scale.Build(k)
	if err != nil {
		return Result{}, err
	}

	degree, ok := s.Degree(pc)
	if !ok {
		return Unresolved(n), nil
	}
	return Resolved(n, Syllable(degree)), nil
}

// Transcribe maps a melody in order. It stops at the first note that cannot be
// normalized.
func Transcribe(notes []pitch.NoteSpelling, k scale.Key) ([]Result, error) {
	if _, err := scale.Build(k); err != nil {
		return nil, err
	}

	res := make([]Result, 0, len(notes))
	for i, n := range notes {
		r, err := Map(n, k)
		if err != nil {
			return nil, fmt.Errorf("note %d: %w", i+1, err)
		}
		res = append(res, r)
	}
	return res, nil
}

func Render(results []Result, style Style) string {
	tokens := make([]string, len(results))
	for i, r := range results {
		tokens[i] = r.Token(style)
	}
	return strings.Join(tokens, " ")
}
