package renderer

import (
	"image/color"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// NormShape is a payload position: a point, or a box when Width/Height are
// present. All coordinates are normalized to [0,1] against the video frame.
type NormShape struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// IsBox reports whether the shape carries an extent of its own.
func (s NormShape) IsBox() bool {
	return s.Width != nil && s.Height != nil
}

// Denormalize converts the shape to pixels against the viewport. A bare
// point denormalizes to a zero-size rectangle at the point.
func (s NormShape) Denormalize(vp canvas.Rect) canvas.Rect {
	r := canvas.Rect{
		X: vp.X + s.X*vp.W,
		Y: vp.Y + s.Y*vp.H,
	}
	if s.Width != nil {
		r.W = *s.Width * vp.W
	}
	if s.Height != nil {
		r.H = *s.Height * vp.H
	}
	return r
}

// denormPoint converts a normalized point to pixels.
func denormPoint(x, y float64, vp canvas.Rect) canvas.Point {
	return canvas.Point{X: vp.X + x*vp.W, Y: vp.Y + y*vp.H}
}

// TimedPoint is one keyframe of a moving element.
type TimedPoint struct {
	TimeMs float64 `json:"timeMs"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// interpolateAt linearly interpolates the position at tMs from time-sorted
// keyframes. Queries outside the sequence clamp to the nearest endpoint.
// Out-of-order keyframes report !ok instead of guessing.
func interpolateAt(points []TimedPoint, tMs float64) (x, y float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	for i := 0; i < len(points)-1; i++ {
		if points[i+1].TimeMs < points[i].TimeMs {
			return 0, 0, false
		}
	}
	if tMs <= points[0].TimeMs {
		return points[0].X, points[0].Y, true
	}
	last := points[len(points)-1]
	if tMs >= last.TimeMs {
		return last.X, last.Y, true
	}
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		if tMs < b.TimeMs {
			span := b.TimeMs - a.TimeMs
			if span == 0 {
				return a.X, a.Y, true
			}
			t := (tMs - a.TimeMs) / span
			return lerp(a.X, b.X, t), lerp(a.Y, b.Y, t), true
		}
	}
	return last.X, last.Y, true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// textBackgroundOpts configures drawTextWithBackground.
type textBackgroundOpts struct {
	textColor    color.Color
	background   color.Color
	padding      float64
	cornerRadius float64
}

// drawTextWithBackground measures s, paints a background box sized to the
// text metrics plus padding, then draws the text on top. It returns the
// occupied box so callers can stack labels.
func drawTextWithBackground(ctx *canvas.Context, s string, x, y float64, opts textBackgroundOpts) canvas.Rect {
	tw, th := ctx.MeasureText(s)
	box := canvas.Rect{
		X: x,
		Y: y,
		W: tw + 2*opts.padding,
		H: th + 2*opts.padding,
	}
	if opts.background != nil {
		if opts.cornerRadius > 0 {
			ctx.FillRoundedRect(box, opts.cornerRadius, opts.background)
		} else {
			ctx.FillRect(box, opts.background)
		}
	}
	ctx.DrawText(s, x+opts.padding, y+opts.padding, opts.textColor)
	return box
}
