package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	job := New("classic", 3)

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %s, got %s", StatusQueued, job.Status)
	}
	if job.Variant != "classic" || job.SegmentCount != 3 {
		t.Errorf("unexpected request fields: %q, %d", job.Variant, job.SegmentCount)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestJob_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"QUEUED to RESOLVING", StatusQueued, StatusResolving, false},
		{"QUEUED to FAILED", StatusQueued, StatusFailed, false},
		{"RESOLVING to COMPOSING", StatusResolving, StatusComposing, false},
		{"COMPOSING to RENDERING", StatusComposing, StatusRendering, false},
		{"RENDERING to READY", StatusRendering, StatusReady, false},
		{"READY to DELIVERED", StatusReady, StatusDelivered, false},
		{"READY to FAILED", StatusReady, StatusFailed, false},
		{"RENDERING to FAILED", StatusRendering, StatusFailed, false},

		{"QUEUED to RENDERING", StatusQueued, StatusRendering, true},
		{"RESOLVING to READY", StatusResolving, StatusReady, true},
		{"RENDERING to DELIVERED", StatusRendering, StatusDelivered, true},
		{"DELIVERED to FAILED", StatusDelivered, StatusFailed, true},
		{"FAILED to QUEUED", StatusFailed, StatusQueued, true},
		{"FAILED to FAILED", StatusFailed, StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("render-1", "classic", 1)
			job.Status = tt.from

			err := job.TransitionTo(tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidTransition {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if !tt.wantErr && job.GetStatus() != tt.to {
				t.Errorf("expected status %s, got %s", tt.to, job.GetStatus())
			}
		})
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := New("modern", 2)

	if err := job.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if job.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if err := job.StartComposing(1); err != nil {
		t.Fatalf("StartComposing() error = %v", err)
	}
	if err := job.StartRendering(810, 30); err != nil {
		t.Fatalf("StartRendering() error = %v", err)
	}
	if err := job.MarkReady(2048); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if job.IsTerminal() {
		t.Error("READY must not be terminal")
	}
	if err := job.MarkDelivered(); err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}

	if !job.IsTerminal() {
		t.Error("expected DELIVERED to be terminal")
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
	if job.UnresolvedCount != 1 || job.TotalFrames != 810 || job.FramesPerSecond != 30 || job.ArtifactSize != 2048 {
		t.Errorf("unexpected record: %+v", job.Clone())
	}
}

func TestJob_Fail(t *testing.T) {
	job := New("classic", 1)
	_ = job.Start()

	if err := job.Fail(StageResolution, "context canceled"); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.FailedStage != StageResolution {
		t.Errorf("expected stage %s, got %s", StageResolution, job.FailedStage)
	}
	if job.Error != "context canceled" {
		t.Errorf("unexpected error message %q", job.Error)
	}

	if err := job.Fail(StageRender, "again"); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition on second failure, got %v", err)
	}
	if job.FailedStage != StageResolution {
		t.Error("second failure must not overwrite the first stage")
	}
}

func TestJob_Clone(t *testing.T) {
	job := New("classic", 4)
	_ = job.Start()
	job.UpdatedAt = time.Now().Add(-time.Minute)

	clone := job.Clone()
	if clone == job {
		t.Fatal("expected a distinct copy")
	}
	if clone.ID != job.ID || clone.Status != job.Status || !clone.UpdatedAt.Equal(job.UpdatedAt) {
		t.Errorf("clone differs: %+v vs %+v", clone, job)
	}

	_ = clone.StartComposing(0)
	if job.GetStatus() != StatusResolving {
		t.Error("mutating the clone changed the original")
	}
}
