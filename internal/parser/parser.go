// Package parser validates untrusted manifest JSON (or YAML) before it is
// handed to the annotation constructors. Parser checks are hard rejections:
// any structural problem returns an error naming the offending field.
package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// knownTypes are the categories with payload shapes the parser understands.
// Anything else is accepted with a warning so newer manifests keep loading.
var knownTypes = map[string]bool{
	"detection":  true,
	"text":       true,
	"graph":      true,
	"trajectory": true,
	"cross":      true,
	"hello":      true,
}

// Parser validates raw manifest data. The zero value is usable and logs to
// slog.Default().
type Parser struct {
	log *slog.Logger
}

// New returns a parser logging through the given logger; nil means
// slog.Default().
func New(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

func (p *Parser) logger() *slog.Logger {
	if p != nil && p.log != nil {
		return p.log
	}
	return slog.Default()
}

// Parse JSON-decodes raw and validates it. On success it returns the
// decoded plain structure; wrapping it into manifest objects is the
// caller's job.
func (p *Parser) Parse(raw []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	return p.ParseValue(v)
}

// ParseFile reads and validates a manifest file, dispatching on the
// extension: .yaml/.yml via YAML, anything else as JSON.
func (p *Parser) ParseFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("invalid manifest YAML: %w", err)
		}
		return p.ParseValue(v)
	default:
		return p.Parse(raw)
	}
}

// ParseValue validates an already-decoded manifest value.
func (p *Parser) ParseValue(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest must be an object, got %T", v)
	}
	if _, ok := m["version"]; !ok {
		return nil, fmt.Errorf("Missing required field: version")
	}
	if vm, ok := m["videoMetadata"]; ok {
		if err := p.validateVideoMetadata(vm); err != nil {
			return nil, err
		}
	}
	// Both groups are ingested downstream, so both are validated when both
	// are present.
	anns, hasAnns := m["annotations"]
	items, hasItems := m["items"]
	if !hasAnns && !hasItems {
		return nil, fmt.Errorf("Missing required field: annotations")
	}
	if hasAnns {
		list, ok := anns.([]any)
		if !ok {
			return nil, fmt.Errorf("annotations must be an array, got %T", anns)
		}
		for i, item := range list {
			if err := p.validateAnnotation(item); err != nil {
				return nil, fmt.Errorf("annotation %d: %w", i, err)
			}
		}
	}
	if hasItems {
		byCat, ok := items.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("items must be a map of category to array, got %T", items)
		}
		for cat, bucket := range byCat {
			list, ok := bucket.([]any)
			if !ok {
				return nil, fmt.Errorf("items[%s] must be an array, got %T", cat, bucket)
			}
			for i, item := range list {
				if err := p.validateAnnotation(item); err != nil {
					return nil, fmt.Errorf("items[%s][%d]: %w", cat, i, err)
				}
			}
		}
	}
	return m, nil
}

func (p *Parser) validateVideoMetadata(v any) error {
	vm, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("videoMetadata must be an object, got %T", v)
	}
	dur, ok := toFloat(vm["durationMs"])
	if !ok || dur <= 0 {
		return fmt.Errorf("videoMetadata.durationMs must be a positive number")
	}
	res, ok := vm["resolution"].(map[string]any)
	if !ok {
		return fmt.Errorf("videoMetadata.resolution must be an object")
	}
	for _, field := range []string{"width", "height"} {
		n, ok := toFloat(res[field])
		if !ok || n <= 0 {
			return fmt.Errorf("videoMetadata.resolution.%s must be a positive number", field)
		}
	}
	return nil
}

func (p *Parser) validateAnnotation(v any) error {
	a, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("annotation must be an object, got %T", v)
	}
	for _, field := range []string{"id", "type", "timeRange", "data"} {
		if _, ok := a[field]; !ok {
			return fmt.Errorf("Missing required field: %s", field)
		}
	}
	if err := p.validateTimeRange(a["timeRange"]); err != nil {
		return err
	}
	typ, _ := a["type"].(string)
	data, ok := a["data"].(map[string]any)
	if !ok {
		return fmt.Errorf("data must be an object, got %T", a["data"])
	}
	switch typ {
	case "detection":
		return p.validateDetectionData(data)
	case "text":
		return p.validateTextData(data)
	case "graph":
		return p.validateGraphData(data)
	case "trajectory":
		return p.validateTrajectoryData(data)
	default:
		if !knownTypes[typ] {
			p.logger().Warn("unknown annotation type accepted", "type", typ)
		}
	}
	return nil
}

func (p *Parser) validateTimeRange(v any) error {
	tr, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("timeRange must be an object, got %T", v)
	}
	start, ok := toFloat(tr["startMs"])
	if !ok || start < 0 {
		return fmt.Errorf("timeRange.startMs must be a non-negative number")
	}
	end, ok := toFloat(tr["endMs"])
	if !ok || end < 0 {
		return fmt.Errorf("timeRange.endMs must be a non-negative number")
	}
	if start >= end {
		return fmt.Errorf("startMs must be less than endMs (got %v >= %v)", start, end)
	}
	return nil
}

func (p *Parser) validateDetectionData(data map[string]any) error {
	bbox, ok := data["bbox"]
	if !ok {
		return fmt.Errorf("detection data requires a bbox")
	}
	if err := ValidateNormalizedBBox("bbox", bbox); err != nil {
		return err
	}
	if conf, present := data["confidence"]; present {
		n, ok := toFloat(conf)
		if !ok || n < 0 || n > 1 {
			return fmt.Errorf("confidence must be a number in [0,1], got %v", conf)
		}
	}
	return nil
}

func (p *Parser) validateTextData(data map[string]any) error {
	if _, ok := data["text"].(string); !ok {
		return fmt.Errorf("text data requires a text string")
	}
	return validateNormalizedPoint("position", data["position"])
}

func (p *Parser) validateGraphData(data map[string]any) error {
	series, ok := data["series"].([]any)
	if !ok {
		return fmt.Errorf("graph data requires a series array")
	}
	for i, s := range series {
		sm, ok := s.(map[string]any)
		if !ok {
			return fmt.Errorf("series %d must be an object", i)
		}
		points, ok := sm["points"].([]any)
		if !ok {
			return fmt.Errorf("series %d requires a points array", i)
		}
		for j, pt := range points {
			pm, ok := pt.(map[string]any)
			if !ok {
				return fmt.Errorf("series %d point %d must be an object", i, j)
			}
			for _, field := range []string{"timeMs", "value"} {
				if _, ok := toFloat(pm[field]); !ok {
					return fmt.Errorf("series %d point %d: %s must be a number", i, j, field)
				}
			}
		}
	}
	return ValidateNormalizedBBox("position", data["position"])
}

func (p *Parser) validateTrajectoryData(data map[string]any) error {
	points, ok := data["points"].([]any)
	if !ok {
		return fmt.Errorf("trajectory data requires a points array")
	}
	for i, pt := range points {
		pm, ok := pt.(map[string]any)
		if !ok {
			return fmt.Errorf("trajectory point %d must be an object", i)
		}
		if _, ok := toFloat(pm["timeMs"]); !ok {
			return fmt.Errorf("trajectory point %d: timeMs must be a number", i)
		}
		for _, field := range []string{"x", "y"} {
			if err := validateNormalizedValue(fmt.Sprintf("trajectory point %d.%s", i, field), pm[field]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateNormalizedBBox checks a rectangle whose coordinates are all
// normalized to [0,1] and which stays inside the unit square. Errors name
// the offending field under the given name.
func ValidateNormalizedBBox(name string, v any) error {
	b, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%s must be an object, got %T", name, v)
	}
	vals := map[string]float64{}
	for _, field := range []string{"x", "y", "width", "height"} {
		if err := validateNormalizedValue(name+"."+field, b[field]); err != nil {
			return err
		}
		vals[field], _ = toFloat(b[field])
	}
	if vals["x"]+vals["width"] > 1 {
		return fmt.Errorf("%s exceeds frame: x+width = %v", name, vals["x"]+vals["width"])
	}
	if vals["y"]+vals["height"] > 1 {
		return fmt.Errorf("%s exceeds frame: y+height = %v", name, vals["y"]+vals["height"])
	}
	return nil
}

func validateNormalizedPoint(name string, v any) error {
	pt, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%s must be an object, got %T", name, v)
	}
	for _, field := range []string{"x", "y"} {
		if err := validateNormalizedValue(name+"."+field, pt[field]); err != nil {
			return err
		}
	}
	return nil
}

// validateNormalizedValue is the single scalar primitive all coordinate
// checks share: a number in [0,1] passes, anything else fails naming the
// offending value.
func validateNormalizedValue(name string, v any) error {
	n, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("%s must be a number in [0,1], got %v", name, v)
	}
	if n < 0 || n > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", name, n)
	}
	return nil
}

// toFloat coerces the numeric representations produced by encoding/json
// (float64) and yaml.v3 (int, int64, float64).
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
