package timeline

import (
	"fmt"
	"math"
)

// Compose schedules the title, every segment and the closing block into a
// gap-free frame timeline. Durations are indexed like segments; a nil entry
// uses cfg.FallbackSegmentDurationSeconds. Each block length is rounded
// exactly once and start frames come from a single running prefix sum.
func Compose(segments []Segment, durations []Duration, cfg Config) (*Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(durations) != len(segments) {
		return nil, &ConfigError{
			Field:  "durations",
			Reason: fmt.Sprintf("got %d durations for %d segments", len(durations), len(segments)),
		}
	}

	fps := cfg.FramesPerSecond
	if len(segments) == 0 {
		return composeEmpty(cfg), nil
	}

	titleFrames := toFrames(cfg.TitleDurationSeconds, fps)
	segFrames := make([]int, len(segments))
	for i := range segments {
		segFrames[i] = toFrames(segmentSeconds(durations[i], cfg.FallbackSegmentDurationSeconds, fps), fps)
	}

	closingStart := titleFrames
	for _, n := range segFrames {
		closingStart += n
	}
	total := closingStart + toFrames(cfg.ClosingDurationSeconds, fps)
	if cfg.MaxDurationSeconds > 0 {
		total = min(total, toFrames(cfg.MaxDurationSeconds, fps))
	}

	tl := &Timeline{
		FramesPerSecond: fps,
		TotalFrames:     total,
		Title:           Block{StartFrame: 0, LengthFrames: clampLength(0, titleFrames, total)},
		Segments:        make([]SegmentBlock, 0, len(segments)),
	}

	fadeFrames := toFrames(cfg.FadeSeconds, fps)
	cursor := tl.Title.EndFrame()
	for i, n := range segFrames {
		if cursor >= total {
			// No room left: the segment and its narration are dropped.
			break
		}
		length := clampLength(cursor, n, total)
		fade := fadeWindow(fadeFrames, length)
		tl.Segments = append(tl.Segments, SegmentBlock{
			SegmentIndex:  i,
			StartFrame:    cursor,
			LengthFrames:  length,
			FadeInFrames:  fade,
			FadeOutFrames: fade,
		})
		cursor += length
	}

	tl.Closing = Block{StartFrame: cursor, LengthFrames: total - cursor}
	return tl, nil
}

// composeEmpty builds the "no content" timeline: a single title display
// block, no segments and an empty closing block.
func composeEmpty(cfg Config) *Timeline {
	frames := toFrames(cfg.EmptyDisplaySeconds, cfg.FramesPerSecond)
	return &Timeline{
		FramesPerSecond: cfg.FramesPerSecond,
		TotalFrames:     frames,
		Title:           Block{StartFrame: 0, LengthFrames: frames},
		Segments:        []SegmentBlock{},
		Closing:         Block{StartFrame: frames, LengthFrames: 0},
	}
}

// segmentSeconds returns the resolved duration, or the fallback when it is
// missing, not a finite non-negative number, or too long to count in frames.
func segmentSeconds(d Duration, fallback float64, fps int) float64 {
	if d == nil || !finiteNonNegative(*d) || !fitsFrames(*d, fps) {
		return fallback
	}
	return *d
}

func toFrames(seconds float64, fps int) int {
	return int(math.Round(seconds * float64(fps)))
}

// clampLength limits a block starting at start so it ends by total.
func clampLength(start, length, total int) int {
	remaining := total - start
	if remaining <= 0 {
		return 0
	}
	return min(length, remaining)
}

// fadeWindow returns the fade length for a block of the given length. A fade
// that would cover the whole block is dropped; otherwise it is limited to
// half the block so fade-in and fade-out never overlap.
func fadeWindow(fadeFrames, length int) int {
	if fadeFrames <= 0 || fadeFrames >= length {
		return 0
	}
	return min(fadeFrames, length/2)
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
