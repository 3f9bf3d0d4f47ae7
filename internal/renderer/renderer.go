// Package renderer contains the per-category drawing strategies that turn a
// single annotation plus the current video time into canvas drawing calls.
//
// Renderers never fail a frame: a malformed payload is logged and skipped so
// one bad annotation cannot blank the rest of the overlay.
package renderer

import (
	"log/slog"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Renderer draws one annotation category. Type is the category tag the
// engine dispatches on; Render paints a single annotation at the current
// video time against the given viewport rectangle.
type Renderer interface {
	Type() string
	Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, viewport canvas.Rect)
}

// CanRender reports whether r handles the annotation's category.
func CanRender(r Renderer, a *annotation.Annotation) bool {
	return a != nil && a.Type == r.Type()
}

// Defaults returns the built-in renderer set, one per known category.
func Defaults(log *slog.Logger) []Renderer {
	return []Renderer{
		NewDetection(log),
		NewText(log),
		NewGraph(log),
		NewTrajectory(log),
		NewCross(log),
		NewHello(log),
	}
}

// base carries the logger shared by all concrete renderers.
type base struct {
	log *slog.Logger
}

func (b base) logger() *slog.Logger {
	if b.log != nil {
		return b.log
	}
	return slog.Default()
}
