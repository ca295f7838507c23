// Package timeline holds the verse segment model and the frame-accurate
// timeline compositor shared by every visual variant.
package timeline

import "fmt"

// SegmentID identifies a segment by its group (chapter) and 1-based ordinal.
type SegmentID struct {
	GroupID string `json:"group_id"`
	Ordinal int    `json:"ordinal"`
}

// String returns the "group:ordinal" form used in logs and filenames.
func (id SegmentID) String() string {
	return fmt.Sprintf("%s:%d", id.GroupID, id.Ordinal)
}

// GroupInfo is optional display metadata for the group a segment belongs to.
type GroupInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Segment is one narrated, displayed unit of content (a verse).
// Segments are owned by the caller and never modified.
type Segment struct {
	// ID is the stable identifier of the segment.
	ID SegmentID `json:"id"`
	// Text is the primary display text.
	Text string `json:"text"`
	// Translation is an optional secondary line.
	Translation string `json:"translation,omitempty"`
	// Group carries title metadata; nil when the caller has none.
	Group *GroupInfo `json:"group,omitempty"`
	// NarrationURL addresses the narration audio; empty means no narration.
	NarrationURL string `json:"narration_url,omitempty"`
}

// Duration is the resolved narration length of a segment in seconds.
// A nil Duration means unresolved and is replaced by the fallback length.
type Duration = *float64

// Seconds returns a resolved Duration holding s.
func Seconds(s float64) Duration {
	return &s
}
