package renderer

import (
	"image/color"
	"log/slog"
	"math"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Trajectory draws a moving element: its interpolated current position,
// an optional faded full path, a fading recent-history trail, an optional
// direction arrow and an optional dashed future path.
type Trajectory struct {
	base
}

func NewTrajectory(log *slog.Logger) *Trajectory {
	return &Trajectory{base{log}}
}

func (t *Trajectory) Type() string { return "trajectory" }

type trajectoryData struct {
	Points []TimedPoint `json:"points"`
}

type trajectoryStyle struct {
	Color           string  `json:"color"`
	LineWidth       float64 `json:"lineWidth"`
	ShowFullPath    bool    `json:"showFullPath"`
	ShowHistory     bool    `json:"showHistory"`
	HistoryWindowMs float64 `json:"historyWindowMs"`
	ShowArrow       bool    `json:"showArrow"`
	ShowFuture      bool    `json:"showFuture"`
}

func defaultTrajectoryStyle() trajectoryStyle {
	return trajectoryStyle{
		Color:           "#00e5ff",
		LineWidth:       2,
		ShowFullPath:    true,
		ShowHistory:     true,
		HistoryWindowMs: 2000,
		ShowArrow:       true,
	}
}

// arrowProbeMs is the half-gap of the two interpolated samples used to
// estimate the direction of travel (500 ms apart, bracketing now).
const arrowProbeMs = 250.0

func (t *Trajectory) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data trajectoryData
	if err := a.DecodeData(&data); err != nil {
		t.logger().Warn("trajectory payload undecodable", "id", a.ID, "err", err)
		return
	}
	if len(data.Points) == 0 {
		t.logger().Warn("trajectory has no points", "id", a.ID)
		return
	}
	style := defaultTrajectoryStyle()
	if err := a.DecodeStyle(&style); err != nil {
		t.logger().Warn("trajectory style undecodable", "id", a.ID, "err", err)
	}
	col := canvas.ParseColor(style.Color, color.NRGBA{0x00, 0xe5, 0xff, 0xff})

	nx, ny, ok := interpolateAt(data.Points, tMs)
	if !ok {
		t.logger().Warn("trajectory points not time-sorted", "id", a.ID)
		return
	}
	pos := denormPoint(nx, ny, vp)

	// Denormalize every keyframe once; all path passes reuse this.
	pixels := make([]canvas.Point, len(data.Points))
	for i, p := range data.Points {
		pixels[i] = denormPoint(p.X, p.Y, vp)
	}

	if style.ShowFullPath {
		ctx.Polyline(pixels, canvas.WithAlpha(col, 0.3), style.LineWidth/2)
	}
	if style.ShowHistory && style.HistoryWindowMs > 0 {
		t.drawHistory(ctx, data.Points, pixels, tMs, style, col)
	}
	if style.ShowFuture {
		t.drawFuture(ctx, data.Points, pixels, tMs, style, col)
	}

	// Current position: glow, solid core, white highlight.
	ctx.FillCircle(pos.X, pos.Y, 10, canvas.WithAlpha(col, 0.25))
	ctx.FillCircle(pos.X, pos.Y, 6, col)
	ctx.FillCircle(pos.X, pos.Y, 2.5, canvas.ParseColor("white", nil))

	if style.ShowArrow {
		t.drawArrow(ctx, data.Points, pos, tMs, vp, col)
	}
}

// drawHistory draws the trail inside [tMs-window, tMs]: each segment's
// opacity and width fade linearly from the window's start to now.
func (t *Trajectory) drawHistory(ctx *canvas.Context, points []TimedPoint, pixels []canvas.Point, tMs float64, style trajectoryStyle, col color.Color) {
	windowStart := tMs - style.HistoryWindowMs
	for i := 1; i < len(points); i++ {
		segEnd := points[i].TimeMs
		if segEnd < windowStart || points[i-1].TimeMs > tMs {
			continue
		}
		frac := (segEnd - windowStart) / style.HistoryWindowMs
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		alpha := 0.15 + 0.85*frac
		width := style.LineWidth * (0.4 + 0.6*frac)
		ctx.Line(pixels[i-1].X, pixels[i-1].Y, pixels[i].X, pixels[i].Y, canvas.WithAlpha(col, alpha), width)
	}
}

// drawFuture connects the keyframes beyond the current time with dashed
// segments.
func (t *Trajectory) drawFuture(ctx *canvas.Context, points []TimedPoint, pixels []canvas.Point, tMs float64, style trajectoryStyle, col color.Color) {
	faded := canvas.WithAlpha(col, 0.5)
	var prev *canvas.Point
	for i := range points {
		if points[i].TimeMs <= tMs {
			continue
		}
		if prev != nil {
			ctx.DashedLine(prev.X, prev.Y, pixels[i].X, pixels[i].Y, faded, style.LineWidth/2, 6, 4)
		}
		prev = &pixels[i]
	}
}

// drawArrow estimates the direction of travel from two interpolated samples
// 500 ms apart bracketing the current time and paints an arrowhead ahead of
// the current position. Degenerate direction vectors skip the arrow.
func (t *Trajectory) drawArrow(ctx *canvas.Context, points []TimedPoint, pos canvas.Point, tMs float64, vp canvas.Rect, col color.Color) {
	x1, y1, ok1 := interpolateAt(points, tMs-arrowProbeMs)
	x2, y2, ok2 := interpolateAt(points, tMs+arrowProbeMs)
	if !ok1 || !ok2 {
		return
	}
	p1 := denormPoint(x1, y1, vp)
	p2 := denormPoint(x2, y2, vp)
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	px, py := -uy, ux

	tip := canvas.Point{X: pos.X + ux*16, Y: pos.Y + uy*16}
	left := canvas.Point{X: tip.X - ux*8 + px*5, Y: tip.Y - uy*8 + py*5}
	right := canvas.Point{X: tip.X - ux*8 - px*5, Y: tip.Y - uy*8 - py*5}
	ctx.FillPolygon([]canvas.Point{tip, left, right}, col)
}
