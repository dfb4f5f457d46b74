package llm

import (
	"errors"
	"fmt"
)

// GenerationError aborts a turn's stream. Partial is the text emitted before
// the failure; the reply is incomplete.
type GenerationError struct {
	Family  Family
	Partial string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("%s generation failed after %d chars: %v", e.Family, len(e.Partial), e.Err)
	}
	return fmt.Sprintf("%s generation failed: %v", e.Family, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var (
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrSnapshotRegressed     = errors.New("cumulative snapshot does not extend previous text")
)
