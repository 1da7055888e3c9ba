package ingest

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned when the recognizer output has no items
// at all. The video's text phase cannot proceed without a transcript.
var ErrEmptyTranscript = errors.New("transcript contains no items")

// ErrZeroMagnitude marks a degenerate embedding with zero norm. Cosine
// similarity is undefined for it.
var ErrZeroMagnitude = errors.New("vector has zero magnitude")

// MalformedItemError is returned for a recognizer item without content.
type MalformedItemError struct {
	Index int
}

func (e *MalformedItemError) Error() string {
	return fmt.Sprintf("transcript item %d has no content", e.Index)
}
