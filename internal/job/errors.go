package job

import (
	"errors"
	"fmt"
)

// Stage names the step of a render at which a failure happened.
type Stage string

const (
	// StageValidation covers request checks such as unknown variants.
	StageValidation Stage = "validation"
	// StageResolution covers narration duration lookup.
	StageResolution Stage = "resolution"
	// StageComposition covers timeline computation.
	StageComposition Stage = "composition"
	// StageRender covers the render engine and artifact handling.
	StageRender Stage = "render"
	// StageDelivery covers streaming the artifact to the caller.
	StageDelivery Stage = "delivery"
)

// Error is returned by RenderService operations. It tags the underlying
// cause with the stage that produced it.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StageOf returns the stage tag carried by err, if any.
func StageOf(err error) (Stage, bool) {
	var jobErr *Error
	if errors.As(err, &jobErr) {
		return jobErr.Stage, true
	}
	return "", false
}
