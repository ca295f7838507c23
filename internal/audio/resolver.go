// Package audio measures narration durations ahead of timeline composition.
package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrProbeFailed is wrapped by every ResolutionError.
var ErrProbeFailed = errors.New("duration probe failed")

// DurationResolver reports the playback length of a narration address.
// A nil duration with a nil error means the media exists but its length is
// unknown. Callers treat both outcomes as "use the fallback".
type DurationResolver interface {
	Resolve(ctx context.Context, address string) (*float64, error)
}

// ResolutionError describes a failed duration lookup for a single address.
type ResolutionError struct {
	Address string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve duration of %s: %v", e.Address, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrProbeFailed, e.Err}
}
