package model

import (
	"time"

	"github.com/jsphweid/musan/scale"
)

// A missing or null key means the server default.
type TranscribeRequestBody struct {
	Key   *scale.Key `json:"key,omitempty"`
	Notes []string   `json:"notes"`
	Style string     `json:"style"`
}

type NoteResult struct {
	Note     string `json:"note"`
	Syllable string `json:"syllable,omitempty"`
	Resolved bool   `json:"resolved"`
}

type TranscriptResponse struct {
	ID         string       `json:"id"`
	Key        scale.Key    `json:"key"`
	Source     string       `json:"source,omitempty"`
	Notation   string       `json:"notation"`
	Notes      []NoteResult `json:"notes"`
	Unresolved int          `json:"unresolved"`
	CreatedAt  time.Time    `json:"created_at"`
}

type KeyResponse struct {
	Key       scale.Key `json:"key"`
	Signature int       `json:"signature"`
}

type ScaleResponse struct {
	Key       scale.Key `json:"key"`
	Signature int       `json:"signature"`
	Notes     []string  `json:"notes"`
	Syllables []string  `json:"syllables"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
