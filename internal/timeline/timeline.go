package timeline

import (
	"errors"
	"fmt"
)

// ErrBrokenTimeline is returned by Validate when a timeline violates its invariants.
var ErrBrokenTimeline = errors.New("timeline: invariant violated")

// Block is a contiguous span of frames.
type Block struct {
	StartFrame   int `json:"start_frame"`
	LengthFrames int `json:"length_frames"`
}

// EndFrame returns the first frame after the block.
func (b Block) EndFrame() int {
	return b.StartFrame + b.LengthFrames
}

// SegmentBlock schedules one input segment.
type SegmentBlock struct {
	// SegmentIndex is the position of the segment in the input list.
	SegmentIndex  int `json:"segment_index"`
	StartFrame    int `json:"start_frame"`
	LengthFrames  int `json:"length_frames"`
	FadeInFrames  int `json:"fade_in_frames"`
	FadeOutFrames int `json:"fade_out_frames"`
}

// EndFrame returns the first frame after the block.
func (b SegmentBlock) EndFrame() int {
	return b.StartFrame + b.LengthFrames
}

// FadeOutStart returns the block-relative frame where the fade-out begins.
// It equals LengthFrames when the block has no fade-out.
func (b SegmentBlock) FadeOutStart() int {
	return b.LengthFrames - b.FadeOutFrames
}

// Timeline is the immutable frame schedule of one render.
type Timeline struct {
	FramesPerSecond int            `json:"frames_per_second"`
	TotalFrames     int            `json:"total_frames"`
	Title           Block          `json:"title"`
	Segments        []SegmentBlock `json:"segments"`
	Closing         Block          `json:"closing"`
}

// DurationSeconds returns the program length in seconds.
func (t *Timeline) DurationSeconds() float64 {
	return t.FrameSeconds(t.TotalFrames)
}

// FrameSeconds converts a frame count to seconds at the timeline frame rate.
func (t *Timeline) FrameSeconds(frames int) float64 {
	if t.FramesPerSecond <= 0 {
		return 0
	}
	return float64(frames) / float64(t.FramesPerSecond)
}

// Validate checks contiguity, non-negative lengths, fade bounds and the total.
func (t *Timeline) Validate() error {
	if t.Title.StartFrame != 0 {
		return fmt.Errorf("%w: title starts at %d", ErrBrokenTimeline, t.Title.StartFrame)
	}
	if t.Title.LengthFrames < 0 {
		return fmt.Errorf("%w: negative title length", ErrBrokenTimeline)
	}

	cursor := t.Title.EndFrame()
	sum := t.Title.LengthFrames
	for i, b := range t.Segments {
		if b.StartFrame != cursor {
			return fmt.Errorf("%w: segment block %d starts at %d, want %d", ErrBrokenTimeline, i, b.StartFrame, cursor)
		}
		if b.LengthFrames < 0 {
			return fmt.Errorf("%w: segment block %d has negative length", ErrBrokenTimeline, i)
		}
		if b.FadeInFrames < 0 || b.FadeOutFrames < 0 ||
			2*b.FadeInFrames > b.LengthFrames || 2*b.FadeOutFrames > b.LengthFrames {
			return fmt.Errorf("%w: segment block %d fades exceed half its length", ErrBrokenTimeline, i)
		}
		cursor = b.EndFrame()
		sum += b.LengthFrames
	}

	if t.Closing.StartFrame != cursor {
		return fmt.Errorf("%w: closing starts at %d, want %d", ErrBrokenTimeline, t.Closing.StartFrame, cursor)
	}
	if t.Closing.LengthFrames < 0 {
		return fmt.Errorf("%w: negative closing length", ErrBrokenTimeline)
	}
	sum += t.Closing.LengthFrames

	if sum != t.TotalFrames {
		return fmt.Errorf("%w: blocks sum to %d frames, total is %d", ErrBrokenTimeline, sum, t.TotalFrames)
	}
	return nil
}
