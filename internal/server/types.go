// Package server provides the HTTP boundary of the verse video service.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/maauso/versevideo/internal/job"
	"github.com/maauso/versevideo/internal/media"
	"github.com/maauso/versevideo/internal/timeline"
	"github.com/maauso/versevideo/internal/variant"
)

// RenderRequest is the HTTP request body for POST /render and POST /timeline.
type RenderRequest struct {
	// Variant is the registered visual variant name.
	Variant string `json:"variant" validate:"required,max=64"`
	// Segments is the ordered list of verses to display.
	Segments []SegmentRequest `json:"segments" validate:"required,min=1,max=1000,dive"`
	// Config holds optional timing overrides.
	Config ConfigRequest `json:"config"`
	// Style holds optional presentation overrides.
	Style StyleRequest `json:"style"`
}

// SegmentRequest is one verse in a RenderRequest.
type SegmentRequest struct {
	GroupID      string        `json:"group_id" validate:"required,max=128"`
	Ordinal      int           `json:"ordinal" validate:"required,min=1"`
	Text         string        `json:"text" validate:"required,max=4000"`
	Translation  string        `json:"translation,omitempty" validate:"max=4000"`
	Group        *GroupRequest `json:"group,omitempty"`
	NarrationURL string        `json:"narration_url,omitempty" validate:"omitempty,address"`
}

// GroupRequest is the display metadata of a segment group.
type GroupRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Title    string `json:"title,omitempty" validate:"max=200"`
	Subtitle string `json:"subtitle,omitempty" validate:"max=200"`
}

// ConfigRequest holds timing overrides. Omitted fields use the variant defaults.
type ConfigRequest struct {
	FramesPerSecond                *int     `json:"fps,omitempty" validate:"omitempty,min=1,max=120"`
	TitleDurationSeconds           *float64 `json:"title_duration_seconds,omitempty" validate:"omitempty,gte=0,lte=60"`
	ClosingDurationSeconds         *float64 `json:"closing_duration_seconds,omitempty" validate:"omitempty,gte=0,lte=60"`
	FallbackSegmentDurationSeconds *float64 `json:"fallback_segment_duration_seconds,omitempty" validate:"omitempty,gte=0,lte=600"`
	MaxDurationSeconds             *float64 `json:"max_duration_seconds,omitempty" validate:"omitempty,gte=0,lte=86400"`
}

// StyleRequest holds presentation overrides.
type StyleRequest struct {
	TextColor       string `json:"text_color,omitempty" validate:"omitempty,color"`
	BackgroundColor string `json:"background_color,omitempty" validate:"omitempty,color"`
	AccentColor     string `json:"accent_color,omitempty" validate:"omitempty,color"`
	BackgroundURL   string `json:"background_url,omitempty" validate:"omitempty,address"`
	Title           string `json:"title,omitempty" validate:"max=200"`
	ClosingText     string `json:"closing_text,omitempty" validate:"max=200"`
}

// toJobRequest maps the DTO to the domain request.
func (r RenderRequest) toJobRequest() job.Request {
	segments := make([]timeline.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segments[i] = timeline.Segment{
			ID:           timeline.SegmentID{GroupID: s.GroupID, Ordinal: s.Ordinal},
			Text:         s.Text,
			Translation:  s.Translation,
			NarrationURL: s.NarrationURL,
		}
		if s.Group != nil {
			segments[i].Group = &timeline.GroupInfo{
				Name:     s.Group.Name,
				Title:    s.Group.Title,
				Subtitle: s.Group.Subtitle,
			}
		}
	}

	return job.Request{
		Variant:  r.Variant,
		Segments: segments,
		Options: variant.Options{
			FramesPerSecond:                r.Config.FramesPerSecond,
			TitleDurationSeconds:           r.Config.TitleDurationSeconds,
			ClosingDurationSeconds:         r.Config.ClosingDurationSeconds,
			FallbackSegmentDurationSeconds: r.Config.FallbackSegmentDurationSeconds,
			MaxDurationSeconds:             r.Config.MaxDurationSeconds,
		},
		Style: media.Style{
			TextColor:       r.Style.TextColor,
			BackgroundColor: r.Style.BackgroundColor,
			AccentColor:     r.Style.AccentColor,
			BackgroundURL:   r.Style.BackgroundURL,
			Title:           r.Style.Title,
			ClosingText:     r.Style.ClosingText,
		},
	}
}

// TimelineResponse is the HTTP response for POST /timeline.
type TimelineResponse struct {
	// Variant is the canonical name of the variant used.
	Variant string `json:"variant"`
	// DurationSeconds is the program length.
	DurationSeconds float64 `json:"duration_seconds"`
	// Timeline is the composed frame schedule.
	Timeline *timeline.Timeline `json:"timeline"`
	// Resolutions reports the duration lookup of every segment.
	Resolutions []job.Resolution `json:"resolutions"`
}

// VariantsResponse is the HTTP response for GET /variants.
type VariantsResponse struct {
	Variants []variant.Variant `json:"variants"`
}

// JobResponse is the HTTP response for a render job record.
type JobResponse struct {
	ID              string     `json:"id"`
	Variant         string     `json:"variant"`
	Status          string     `json:"status"`
	FailedStage     string     `json:"failed_stage,omitempty"`
	Error           string     `json:"error,omitempty"`
	SegmentCount    int        `json:"segment_count"`
	UnresolvedCount int        `json:"unresolved_count"`
	TotalFrames     int        `json:"total_frames,omitempty"`
	FramesPerSecond int        `json:"fps,omitempty"`
	ArtifactSize    int64      `json:"artifact_size,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func newJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:              j.ID,
		Variant:         j.Variant,
		Status:          string(j.Status),
		FailedStage:     string(j.FailedStage),
		Error:           j.Error,
		SegmentCount:    j.SegmentCount,
		UnresolvedCount: j.UnresolvedCount,
		TotalFrames:     j.TotalFrames,
		FramesPerSecond: j.FramesPerSecond,
		ArtifactSize:    j.ArtifactSize,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// JobListResponse is the HTTP response for GET /renders.
type JobListResponse struct {
	Renders []JobResponse `json:"renders"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
	// Stage names the render step that failed, when known.
	Stage string `json:"stage,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
