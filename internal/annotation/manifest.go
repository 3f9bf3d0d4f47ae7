package annotation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// DefaultVersion is the manifest schema tag used when none is supplied.
const DefaultVersion = "1.0"

// defaultDetectionWindowMs is the visibility window given to detections
// built without explicit timing.
const defaultDetectionWindowMs = 5000.0

// Manifest is a versioned collection of annotations organized by category.
// Buckets keep insertion order; categories keep first-seen order, which
// fixes the draw layering (later items occlude earlier ones).
type Manifest struct {
	Version       string
	Metadata      map[string]any
	VideoMetadata json.RawMessage

	order   []string
	buckets map[string][]*Annotation
}

// New creates an empty manifest. A manifestId metadata key is generated
// when the caller did not supply one.
func New(metadata map[string]any) *Manifest {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata["manifestId"]; !ok {
		metadata["manifestId"] = uuid.NewString()
	}
	return &Manifest{
		Version:  DefaultVersion,
		Metadata: metadata,
		buckets:  map[string][]*Annotation{},
	}
}

// manifestWire is the JSON shape of a manifest. Annotations may arrive as a
// flat "annotations" array or as an "items" map keyed by category; the two
// are semantically interchangeable.
type manifestWire struct {
	Version       string                       `json:"version"`
	Metadata      map[string]any               `json:"metadata,omitempty"`
	VideoMetadata json.RawMessage              `json:"videoMetadata,omitempty"`
	Annotations   []json.RawMessage            `json:"annotations,omitempty"`
	Items         map[string][]json.RawMessage `json:"items,omitempty"`
}

// FromJSON builds a manifest from raw JSON. Individual annotations must
// decode; a structurally broken item fails the whole load.
func FromJSON(raw []byte) (*Manifest, error) {
	var w manifestWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m := New(w.Metadata)
	if w.Version != "" {
		m.Version = w.Version
	}
	m.VideoMetadata = w.VideoMetadata
	for i, item := range w.Annotations {
		a, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		m.Add(a)
	}
	// Map-shaped items carry no category order of their own; ingest the
	// categories in sorted order so repeated loads stay deterministic.
	cats := make([]string, 0, len(w.Items))
	for cat := range w.Items {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		for i, item := range w.Items[cat] {
			a, err := Decode(item)
			if err != nil {
				return nil, fmt.Errorf("items[%s][%d]: %w", cat, i, err)
			}
			m.Add(a)
		}
	}
	return m, nil
}

// ManifestFromValue builds a manifest from any JSON-shaped value, typically
// the validated map produced by the parser.
func ManifestFromValue(v any) (*Manifest, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode manifest payload: %w", err)
	}
	return FromJSON(raw)
}

// Detection is one raw detector result used by FromDetections.
type Detection struct {
	Class      string   `json:"class,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	TrackID    string   `json:"trackId,omitempty"`
	BBox       BBox     `json:"bbox"`
	StartMs    *float64 `json:"startMs,omitempty"`
	EndMs      *float64 `json:"endMs,omitempty"`
}

// BBox is a normalized bounding box, each field in [0,1].
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FromDetections bulk-builds a detection-category manifest. IDs are
// sequential; detections without explicit timing get a 0-5000 ms window.
func FromDetections(dets []Detection, metadata map[string]any) (*Manifest, error) {
	m := New(metadata)
	for i, d := range dets {
		data, err := json.Marshal(map[string]any{
			"bbox":       d.BBox,
			"class":      d.Class,
			"confidence": d.Confidence,
			"trackId":    d.TrackID,
		})
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		start, end := 0.0, defaultDetectionWindowMs
		if d.StartMs != nil {
			start = *d.StartMs
		}
		if d.EndMs != nil {
			end = *d.EndMs
		}
		m.Add(&Annotation{
			ID:        fmt.Sprintf("detection-%d", i+1),
			Type:      "detection",
			TimeRange: &TimeRange{StartMs: &start, EndMs: &end},
			Data:      data,
		})
	}
	return m, nil
}

// Add appends an annotation to its category bucket, creating the bucket if
// needed.
func (m *Manifest) Add(a *Annotation) {
	if m.buckets == nil {
		m.buckets = map[string][]*Annotation{}
	}
	if _, ok := m.buckets[a.Type]; !ok {
		m.order = append(m.order, a.Type)
	}
	m.buckets[a.Type] = append(m.buckets[a.Type], a)
}

// AddValue coerces a plain payload through the annotation constructor and
// adds it.
func (m *Manifest) AddValue(v any) (*Annotation, error) {
	a, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	m.Add(a)
	return a, nil
}

// Remove deletes the first annotation with the given id across all
// categories and reports whether anything was removed. A bucket emptied by
// the removal is dropped from the category map.
func (m *Manifest) Remove(id string) bool {
	for oi, cat := range m.order {
		bucket := m.buckets[cat]
		for i, a := range bucket {
			if a.ID != id {
				continue
			}
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(m.buckets, cat)
				m.order = append(m.order[:oi], m.order[oi+1:]...)
			} else {
				m.buckets[cat] = bucket
			}
			return true
		}
	}
	return false
}

// ItemsAt returns every annotation visible at tMs, in category order then
// insertion order. The order is stable across calls with no mutation in
// between.
func (m *Manifest) ItemsAt(tMs float64) []*Annotation {
	var out []*Annotation
	for _, cat := range m.order {
		for _, a := range m.buckets[cat] {
			if a.VisibleAt(tMs) {
				out = append(out, a)
			}
		}
	}
	return out
}

// FindByID returns the first annotation with the given id, or nil.
func (m *Manifest) FindByID(id string) *Annotation {
	for _, cat := range m.order {
		for _, a := range m.buckets[cat] {
			if a.ID == id {
				return a
			}
		}
	}
	return nil
}

// ItemsByType returns a copy of the bucket for the given category.
func (m *Manifest) ItemsByType(cat string) []*Annotation {
	bucket := m.buckets[cat]
	out := make([]*Annotation, len(bucket))
	copy(out, bucket)
	return out
}

// Types returns the category names in first-seen order.
func (m *Manifest) Types() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// All returns every annotation in stable order.
func (m *Manifest) All() []*Annotation {
	out := make([]*Annotation, 0, m.Count())
	for _, cat := range m.order {
		out = append(out, m.buckets[cat]...)
	}
	return out
}

// Count returns the total number of annotations.
func (m *Manifest) Count() int {
	n := 0
	for _, bucket := range m.buckets {
		n += len(bucket)
	}
	return n
}

// CountsByType returns the bucket sizes keyed by category.
func (m *Manifest) CountsByType() map[string]int {
	out := make(map[string]int, len(m.buckets))
	for cat, bucket := range m.buckets {
		out[cat] = len(bucket)
	}
	return out
}

// MaxEndMs returns the largest bounded end time across all annotations, or
// zero when none has one. Useful for sizing an offline replay.
func (m *Manifest) MaxEndMs() float64 {
	maxEnd := 0.0
	for _, cat := range m.order {
		for _, a := range m.buckets[cat] {
			if a.TimeRange != nil && a.TimeRange.EndMs != nil && *a.TimeRange.EndMs > maxEnd {
				maxEnd = *a.TimeRange.EndMs
			}
		}
	}
	return maxEnd
}

// Clear empties all buckets, keeping version and metadata.
func (m *Manifest) Clear() {
	m.order = nil
	m.buckets = map[string][]*Annotation{}
}

// Validate reports whether the manifest and all contained annotations are
// structurally sound. Failures are logged rather than returned.
func (m *Manifest) Validate() bool {
	if m.Version == "" {
		slog.Warn("manifest missing version")
		return false
	}
	for _, cat := range m.order {
		for _, a := range m.buckets[cat] {
			if !a.Validate() {
				return false
			}
		}
	}
	return true
}

// MarshalJSON serializes the manifest with a flat annotations array in
// stable order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	items := make([]*Annotation, 0, m.Count())
	for _, cat := range m.order {
		items = append(items, m.buckets[cat]...)
	}
	return json.Marshal(struct {
		Version       string          `json:"version"`
		Metadata      map[string]any  `json:"metadata,omitempty"`
		VideoMetadata json.RawMessage `json:"videoMetadata,omitempty"`
		Annotations   []*Annotation   `json:"annotations"`
	}{m.Version, m.Metadata, m.VideoMetadata, items})
}
