package model

import (
	"github.com/jsphweid/musan/scale"
	"github.com/jsphweid/musan/solfa"
	"github.com/jsphweid/musan/transcript"
)

func NewTranscriptResponse(t transcript.Transcript) TranscriptResponse {
	res := TranscriptResponse{
		ID:         t.ID,
		Key:        t.Key,
		Source:     t.Source,
		Notation:   t.Notation(),
		Notes:      make([]NoteResult, 0, len(t.Notes)),
		Unresolved: t.Summary().Unresolved,
		CreatedAt:  t.CreatedAt,
	}
	for _, r := range t.Notes {
		nr := NoteResult{Note: r.Spelling.String(), Resolved: r.Resolved}
		if r.Resolved {
			nr.Syllable = r.Syllable.String()
		}
		res.Notes = append(res.Notes, nr)
	}
	return res
}

func NewScaleResponse(s scale.Scale) ScaleResponse {
	res := ScaleResponse{
		Key:       s.Key,
		Signature: s.Key.Signature(),
		Notes:     s.Names(),
	}
	for _, syl := range solfa.Syllables() {
		res.Syllables = append(res.Syllables, syl.String())
	}
	return res
}
