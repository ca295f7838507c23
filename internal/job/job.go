// Package job orchestrates renders: it resolves narration durations,
// composes the timeline, drives the renderer and hands the artifact to
// the caller. Each render is tracked by a Job record for operators.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/versevideo/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the request was accepted and nothing ran yet.
	StatusQueued Status = "QUEUED"
	// StatusResolving indicates narration durations are being probed.
	StatusResolving Status = "RESOLVING"
	// StatusComposing indicates the timeline is being computed.
	StatusComposing Status = "COMPOSING"
	// StatusRendering indicates the render engine is running.
	StatusRendering Status = "RENDERING"
	// StatusReady indicates the artifact exists and awaits delivery.
	StatusReady Status = "READY"
	// StatusDelivered indicates the artifact was streamed and removed.
	StatusDelivered Status = "DELIVERED"
	// StatusFailed indicates the job stopped at FailedStage.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusResolving, StatusFailed},
	StatusResolving: {StatusComposing, StatusFailed},
	StatusComposing: {StatusRendering, StatusFailed},
	StatusRendering: {StatusReady, StatusFailed},
	StatusReady:     {StatusDelivered, StatusFailed},
	StatusDelivered: {},
	StatusFailed:    {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is the lifecycle record of one render request. It holds no media.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job; it also names the artifact.
	ID string
	// Variant is the requested visual variant name.
	Variant string
	// Status is the current job state.
	Status Status
	// FailedStage is set when Status is FAILED.
	FailedStage Stage
	// Error contains the failure message if the job failed.
	Error string
	// SegmentCount is the number of segments in the request.
	SegmentCount int
	// UnresolvedCount is how many segments fell back to the default duration.
	UnresolvedCount int
	// TotalFrames is the composed program length.
	TotalFrames int
	// FramesPerSecond is the composed frame rate.
	FramesPerSecond int
	// ArtifactSize is the rendered file size in bytes.
	ArtifactSize int64
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when duration resolution started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID in QUEUED status.
func New(variantName string, segments int) *Job {
	return NewWithID(id.Generate(), variantName, segments)
}

// NewWithID creates a new Job with the specified ID in QUEUED status.
func NewWithID(jobID, variantName string, segments int) *Job {
	now := time.Now()
	return &Job{
		ID:           jobID,
		Variant:      variantName,
		Status:       StatusQueued,
		SegmentCount: segments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusResolving:
		j.StartedAt = j.UpdatedAt
	case StatusDelivered, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// Start transitions the job from QUEUED to RESOLVING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusResolving)
}

// StartComposing records the resolution outcome and moves to COMPOSING.
func (j *Job) StartComposing(unresolved int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusComposing); err != nil {
		return err
	}
	j.UnresolvedCount = unresolved
	return nil
}

// StartRendering records the composed length and moves to RENDERING.
func (j *Job) StartRendering(totalFrames, fps int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusRendering); err != nil {
		return err
	}
	j.TotalFrames = totalFrames
	j.FramesPerSecond = fps
	return nil
}

// MarkReady records the artifact size and moves to READY.
func (j *Job) MarkReady(size int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusReady); err != nil {
		return err
	}
	j.ArtifactSize = size
	return nil
}

// MarkDelivered transitions the job from READY to DELIVERED.
func (j *Job) MarkDelivered() error {
	return j.TransitionTo(StatusDelivered)
}

// Fail transitions the job to FAILED with the stage and message.
// Returns ErrInvalidTransition if the job is already terminal.
func (j *Job) Fail(stage Stage, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.FailedStage = stage
	j.Error = errMsg
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusDelivered || j.Status == StatusFailed
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:              j.ID,
		Variant:         j.Variant,
		Status:          j.Status,
		FailedStage:     j.FailedStage,
		Error:           j.Error,
		SegmentCount:    j.SegmentCount,
		UnresolvedCount: j.UnresolvedCount,
		TotalFrames:     j.TotalFrames,
		FramesPerSecond: j.FramesPerSecond,
		ArtifactSize:    j.ArtifactSize,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}
}
