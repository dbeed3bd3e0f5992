package embedding

import "errors"

// EmbeddingError wraps a provider failure that survived retries.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding." + e.Op + ": " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// ErrInputTooLarge is returned when a text exceeds MaxSegments ×
// SegmentChars. The gateway never truncates silently.
var ErrInputTooLarge = errors.New("embedding: input exceeds max_segments * segment_chars and cannot be embedded without silent truncation")
