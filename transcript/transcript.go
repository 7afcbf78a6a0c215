package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
)

type Transcript struct {
	ID        string
	Key       scale.Key
	Source    string
	Notes     []solfa.Result
	Style     solfa.Style
	CreatedAt time.Time
}

// New transcribes the notes in the key and stamps the result with a fresh id.
func New(source string, notes []pitch.NoteSpelling, k scale.Key, style solfa.Style) (Transcript, error) {
	results, err := solfa.Transcribe(notes, k)
	if err != nil {
		return Transcript{}, err
	}
	return Transcript{
		ID:        uuid.New().String(),
		Key:       k,
		Source:    source,
		Notes:     results,
		Style:     style,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (t Transcript) Notation() string {
	return solfa.Render(t.Notes, t.Style)
}

func (t Transcript) Spellings() []pitch.NoteSpelling {
	res := make([]pitch.NoteSpelling, len(t.Notes))
	for i, r := range t.Notes {
		res[i] = r.Spelling
	}
	return res
}

type Summary struct {
	Total      int
	Resolved   int
	Unresolved int
}

func (t Transcript) Summary() Summary {
	s := Summary{Total: len(t.Notes)}
	for _, r := range t.Notes {
		if r.Resolved {
			s.Resolved++
		} else {
			s.Unresolved++
		}
	}
	return s
}

// Report renders the plain text report shown to users after an upload.
func Report(t Transcript) string {
	var b strings.Builder
	b.WriteString("=== MUSAN TRANSCRIBER ===\n")
	fmt.Fprintf(&b, "Key: %v\n", t.Key)
	if t.Source != "" {
		fmt.Fprintf(&b, "Source: %v\n", t.Source)
	}
	b.WriteString("\n=== SOLFA NOTATION ===\n")
	b.WriteString(t.Notation())
	b.WriteString("\n")

	s := t.Summary()
	if s.Unresolved > 0 {
		fmt.Fprintf(&b, "\n%d of %d notes are outside %v major\n", s.Unresolved, s.Total, t.Key)
	}
	return b.String()
}
