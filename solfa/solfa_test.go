package solfa

import (
	"errors"
	"testing"

	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMap(t *testing.T, note string, key scale.Key) Result {
	t.Helper()
	r, err := Map(pitch.MustParse(note), key)
	require.NoError(t, err)
	return r
}

func TestEveryScaleDegreeMapsToItsOwnSyllable(t *testing.T) {
	for _, k := range scale.Keys() {
		s, err := scale.Build(k)
		require.NoError(t, err)

		for i, n := range s.Notes {
			r, err := Map(n, k)
			require.NoError(t, err)
			assert.True(t, r.Resolved, "%v in %v", n, k)
			assert.Equal(t, Syllable(i), r.Syllable, "%v in %v", n, k)
		}
	}
}

func TestSpellingDoesNotAffectResult(t *testing.T) {
	pairs := [][2]string{
		{"Db", "C#"},
		{"Eb", "D#"},
		{"Gb", "F#"},
		{"Ab", "G#"},
		{"Bb", "A#"},
		{"Cb", "B"},
		{"Fb", "E"},
		{"E#", "F"},
		{"B#", "C"},
		{"Fx", "G"},
	}
	for _, k := range scale.Keys() {
		for _, p := range pairs {
			a := mustMap(t, p[0], k)
			b := mustMap(t, p[1], k)
			assert.Equal(t, a.Resolved, b.Resolved, "%v/%v in %v", p[0], p[1], k)
			assert.Equal(t, a.Syllable, b.Syllable, "%v/%v in %v", p[0], p[1], k)
		}
	}
}

func TestMapIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, mustMap(t, "E4", scale.C), mustMap(t, "E4", scale.C))
		assert.Equal(t, mustMap(t, "C#", scale.D), mustMap(t, "C#", scale.D))
	}
}

func TestOutOfKeyDetection(t *testing.T) {
	assert := assert.New(t)

	r := mustMap(t, "F#", scale.C)
	assert.False(r.Resolved)
	assert.Equal("[F#]", r.Token(StyleBracket))
	assert.Equal("?", r.Token(StyleQuestion))

	r = mustMap(t, "F", scale.C)
	assert.True(r.Resolved)
	assert.Equal(Fa, r.Syllable)
	assert.Equal("fa", r.String())
}

func TestGMajorRoundTrip(t *testing.T) {
	assert := assert.New(t)

	r := mustMap(t, "F#", scale.G)
	assert.True(r.Resolved)
	assert.Equal("ti", r.Syllable.String())

	r = mustMap(t, "F", scale.G)
	assert.False(r.Resolved)
	assert.Equal("F", r.Spelling.Name())
}

func TestUnresolvedKeepsOriginalSpelling(t *testing.T) {
	r := mustMap(t, "Gb5", scale.C)
	assert.False(t, r.Resolved)
	assert.Equal(t, "Gb5", r.Spelling.String())
	assert.Equal(t, "[Gb]", r.Token(StyleBracket))
}

func TestMovableDo(t *testing.T) {
	cases := []struct {
		note string
		key  scale.Key
		want Syllable
	}{
		{"C", scale.C, Do},
		{"D", scale.D, Do},
		{"Bb", scale.F, Fa},
		{"A#", scale.F, Fa},
		{"E#", scale.CSharp, Mi},
		{"F", scale.CSharp, Mi},
		{"Fb", scale.CFlat, Fa},
		{"E", scale.CFlat, Fa},
		{"Cb", scale.GFlat, Fa},
		{"D#", scale.E, Ti},
	}
	for _, c := range cases {
		t.Run(c.note+" in "+c.key.String(), func(t *testing.T) {
			r := mustMap(t, c.note, c.key)
			assert.True(t, r.Resolved)
			assert.Equal(t, c.want, r.Syllable)
		})
	}
}

func TestCNaturalIsForeignToGFlat(t *testing.T) {
	r := mustMap(t, "C", scale.GFlat)
	assert.False(t, r.Resolved)
}

func TestMapRejectsInvalidSpelling(t *testing.T) {
	_, err := Map(pitch.NoteSpelling{Letter: 'H'}, scale.C)
	assert.True(t, errors.Is(err, pitch.ErrInvalidSpelling))
}

func TestMapRejectsUnknownKey(t *testing.T) {
	_, err := Map(pitch.MustParse("C"), scale.Key(99))
	assert.ErrorIs(t, err, scale.ErrUnknownKey)
}

func TestTranscribe(t *testing.T) {
	notes, err := pitch.ParseAll("G4 A4 B4 C5 D5 F#4 F4")
	require.NoError(t, err)

	results, err := Transcribe(notes, scale.G)
	require.NoError(t, err)
	assert.Equal(t, "do re mi fa so ti [F]", Render(results, StyleBracket))
	assert.Equal(t, "do re mi fa so ti ?", Render(results, StyleQuestion))

	results, err = Transcribe(notes, scale.C)
	require.NoError(t, err)
	assert.Equal(t, "so la ti do re [F#] fa", Render(results, StyleBracket))
}

func TestTranscribeReportsFailingNote(t *testing.T) {
	notes := []pitch.NoteSpelling{pitch.MustParse("C"), {Letter: 'H'}}
	_, err := Transcribe(notes, scale.C)
	require.Error(t, err)
	assert.ErrorIs(t, err, pitch.ErrInvalidSpelling)
	assert.Contains(t, err.Error(), "note 2")

	_, err = Transcribe(nil, scale.Key(-1))
	assert.ErrorIs(t, err, scale.ErrUnknownKey)
}

func TestTranscribeEmpty(t *testing.T) {
	results, err := Transcribe(nil, scale.C)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "", Render(results, StyleBracket))
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleBracket, s)

	s, err = ParseStyle("Question")
	require.NoError(t, err)
	assert.Equal(t, StyleQuestion, s)

	_, err = ParseStyle("emoji")
	assert.Error(t, err)
}
