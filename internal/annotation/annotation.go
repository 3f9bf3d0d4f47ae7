// Package annotation holds the data model for timed overlay annotations and
// the versioned manifest that organizes them by category.
package annotation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
)

// TimeRange is the visibility window of an annotation, in video milliseconds.
// A nil StartMs means "from the beginning"; a nil EndMs means "until the end".
type TimeRange struct {
	StartMs *float64 `json:"startMs,omitempty"`
	EndMs   *float64 `json:"endMs,omitempty"`
}

// Annotation is one timed, typed visual fact to draw over the video. The
// Type tag is an open set: unrecognized categories are carried along and
// simply not rendered. Data and Style keep the payload's arrival shape so a
// manifest round-trips byte-for-byte at the item level.
type Annotation struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	TimeRange *TimeRange      `json:"timeRange,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Style     json.RawMessage `json:"style,omitempty"`
}

// Decode builds an Annotation from raw JSON. It fails if id or type is
// missing; an absent data payload defaults to an empty object.
func Decode(raw []byte) (*Annotation, error) {
	var a Annotation
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode annotation: %w", err)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("annotation requires an id")
	}
	if a.Type == "" {
		return nil, fmt.Errorf("annotation %q requires a type", a.ID)
	}
	if len(a.Data) == 0 {
		a.Data = json.RawMessage(`{}`)
	}
	return &a, nil
}

// FromValue builds an Annotation from any JSON-shaped value, e.g. a
// map[string]any coming out of the parser.
func FromValue(v any) (*Annotation, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode annotation payload: %w", err)
	}
	return Decode(raw)
}

// VisibleAt reports whether the annotation should be drawn at time tMs. An
// annotation without a time range is never visible; both bounds are
// inclusive, so a zero-duration range is a visible instant.
func (a *Annotation) VisibleAt(tMs float64) bool {
	if a.TimeRange == nil {
		return false
	}
	start := 0.0
	if a.TimeRange.StartMs != nil {
		start = *a.TimeRange.StartMs
	}
	end := math.Inf(1)
	if a.TimeRange.EndMs != nil {
		end = *a.TimeRange.EndMs
	}
	return tMs >= start && tMs <= end
}

// Validate reports whether the annotation is structurally sound. Failures
// are logged, not returned as errors, so callers can filter a batch without
// aborting it.
func (a *Annotation) Validate() bool {
	if a.ID == "" || a.Type == "" {
		slog.Warn("annotation missing id or type", "id", a.ID, "type", a.Type)
		return false
	}
	if a.TimeRange != nil && a.TimeRange.StartMs != nil && a.TimeRange.EndMs != nil {
		if *a.TimeRange.StartMs > *a.TimeRange.EndMs {
			slog.Warn("annotation time range inverted",
				"id", a.ID, "startMs", *a.TimeRange.StartMs, "endMs", *a.TimeRange.EndMs)
			return false
		}
	}
	return true
}

// DecodeData unmarshals the type-specific payload into v.
func (a *Annotation) DecodeData(v any) error {
	if len(a.Data) == 0 {
		return nil
	}
	return json.Unmarshal(a.Data, v)
}

// DecodeStyle unmarshals the style overrides into v, leaving v untouched
// when no style was supplied. Renderers pass a defaults-filled struct so
// absent fields keep their default values.
func (a *Annotation) DecodeStyle(v any) error {
	if len(a.Style) == 0 {
		return nil
	}
	return json.Unmarshal(a.Style, v)
}
