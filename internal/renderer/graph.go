package renderer

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Graph draws a multi-series chart panel (line, bar or scatter) at a
// normalized rectangular position.
type Graph struct {
	base
}

func NewGraph(log *slog.Logger) *Graph {
	return &Graph{base{log}}
}

func (g *Graph) Type() string { return "graph" }

type graphPoint struct {
	TimeMs float64 `json:"timeMs"`
	Value  float64 `json:"value"`
}

type graphSeries struct {
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	GraphType string       `json:"graphType"`
	Points    []graphPoint `json:"points"`
}

type graphData struct {
	Series   []graphSeries `json:"series"`
	Position *NormShape    `json:"position"`
}

type graphMargin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

type graphStyle struct {
	ShowBackground  bool         `json:"showBackground"`
	BackgroundColor string       `json:"backgroundColor"`
	CornerRadius    float64      `json:"cornerRadius"`
	Margin          *graphMargin `json:"margin"`
	ShowGrid        bool         `json:"showGrid"`
	GridRows        int          `json:"gridRows"`
	GridCols        int          `json:"gridCols"`
	ShowAxes        bool         `json:"showAxes"`
	AxisColor       string       `json:"axisColor"`
	GraphType       string       `json:"graphType"`
	LineWidth       float64      `json:"lineWidth"`
	ShowLegend      bool         `json:"showLegend"`
}

func defaultGraphStyle() graphStyle {
	return graphStyle{
		ShowBackground:  true,
		BackgroundColor: "#00000099",
		CornerRadius:    6,
		ShowGrid:        true,
		GridRows:        4,
		GridCols:        4,
		ShowAxes:        true,
		AxisColor:       "#aaaaaa",
		GraphType:       "line",
		LineWidth:       2,
		ShowLegend:      true,
	}
}

// defaultPalette is cycled for series without an explicit color.
var defaultPalette = []string{"#4fc3f7", "#ffb74d", "#81c784", "#e57373", "#ba68c8"}

func (g *Graph) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data graphData
	if err := a.DecodeData(&data); err != nil {
		g.logger().Warn("graph payload undecodable", "id", a.ID, "err", err)
		return
	}
	if data.Position == nil || !data.Position.IsBox() {
		g.logger().Warn("graph missing rectangular position", "id", a.ID)
		return
	}
	minT, maxT, minV, maxV, ok := graphDataBounds(data.Series)
	if !ok {
		g.logger().Warn("graph has no points", "id", a.ID)
		return
	}
	style := defaultGraphStyle()
	if err := a.DecodeStyle(&style); err != nil {
		g.logger().Warn("graph style undecodable", "id", a.ID, "err", err)
	}
	margin := graphMargin{Top: 20, Right: 20, Bottom: 30, Left: 40}
	if style.Margin != nil {
		margin = *style.Margin
	}

	panel := data.Position.Denormalize(vp)
	if style.ShowBackground {
		ctx.FillRoundedRect(panel, style.CornerRadius, canvas.ParseColor(style.BackgroundColor, color.NRGBA{A: 0x99}))
	}

	inner := canvas.Rect{
		X: panel.X + margin.Left,
		Y: panel.Y + margin.Top,
		W: panel.W - margin.Left - margin.Right,
		H: panel.H - margin.Top - margin.Bottom,
	}
	if inner.W <= 0 || inner.H <= 0 {
		g.logger().Warn("graph panel smaller than its margins", "id", a.ID)
		return
	}

	axis := canvas.ParseColor(style.AxisColor, color.NRGBA{0xaa, 0xaa, 0xaa, 0xff})
	if style.ShowGrid {
		g.drawGrid(ctx, inner, style.GridRows, style.GridCols, canvas.WithAlpha(axis, 0.4))
	}
	if style.ShowAxes {
		g.drawAxes(ctx, inner, minV, maxV, axis)
	}

	scaleX := func(t float64) float64 {
		if maxT == minT {
			return inner.X + inner.W/2
		}
		return inner.X + (t-minT)/(maxT-minT)*inner.W
	}
	// Canvas y grows downward, so higher values map to smaller y.
	scaleY := func(v float64) float64 {
		return inner.Y + inner.H - (v-minV)/(maxV-minV)*inner.H
	}

	for i, s := range data.Series {
		col := canvas.ParseColor(s.Color, canvas.ParseColor(defaultPalette[i%len(defaultPalette)], nil))
		kind := s.GraphType
		if kind == "" {
			kind = style.GraphType
		}
		switch kind {
		case "bar":
			g.drawBars(ctx, s.Points, inner, scaleX, scaleY, col)
		case "scatter":
			for _, p := range s.Points {
				ctx.FillCircle(scaleX(p.TimeMs), scaleY(p.Value), 4, col)
			}
		default: // line
			pts := make([]canvas.Point, len(s.Points))
			for j, p := range s.Points {
				pts[j] = canvas.Point{X: scaleX(p.TimeMs), Y: scaleY(p.Value)}
			}
			ctx.Polyline(pts, col, style.LineWidth)
			for _, p := range pts {
				ctx.FillCircle(p.X, p.Y, 2.5, col)
			}
		}
	}

	if style.ShowLegend {
		g.drawLegend(ctx, data.Series, panel)
	}
}

// graphDataBounds computes [min,max] of time and value across all series,
// padding the value range by 10% on each side. A flat value range gets a
// fixed pad of 1 so it still renders with vertical extent.
func graphDataBounds(series []graphSeries) (minT, maxT, minV, maxV float64, ok bool) {
	minT, minV = math.Inf(1), math.Inf(1)
	maxT, maxV = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			minT = math.Min(minT, p.TimeMs)
			maxT = math.Max(maxT, p.TimeMs)
			minV = math.Min(minV, p.Value)
			maxV = math.Max(maxV, p.Value)
			ok = true
		}
	}
	if !ok {
		return 0, 0, 0, 0, false
	}
	pad := (maxV - minV) * 0.1
	if pad == 0 {
		pad = 1
	}
	return minT, maxT, minV - pad, maxV + pad, true
}

func (g *Graph) drawGrid(ctx *canvas.Context, inner canvas.Rect, rows, cols int, col color.Color) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	for i := 0; i <= rows; i++ {
		y := inner.Y + inner.H*float64(i)/float64(rows)
		ctx.DashedLine(inner.X, y, inner.X+inner.W, y, col, 1, 4, 4)
	}
	for i := 0; i <= cols; i++ {
		x := inner.X + inner.W*float64(i)/float64(cols)
		ctx.DashedLine(x, inner.Y, x, inner.Y+inner.H, col, 1, 4, 4)
	}
}

// drawAxes strokes the value and time axes and up to five numeric tick
// labels evenly spaced across the value range.
func (g *Graph) drawAxes(ctx *canvas.Context, inner canvas.Rect, minV, maxV float64, col color.Color) {
	const tickCount = 5
	ctx.Line(inner.X, inner.Y, inner.X, inner.Y+inner.H, col, 1)
	ctx.Line(inner.X, inner.Y+inner.H, inner.X+inner.W, inner.Y+inner.H, col, 1)
	for i := 0; i < tickCount; i++ {
		frac := float64(i) / float64(tickCount-1)
		v := minV + (maxV-minV)*frac
		y := inner.Y + inner.H - inner.H*frac
		label := formatTick(v)
		tw, th := ctx.MeasureText(label)
		ctx.DrawText(label, inner.X-tw-6, y-th/2, col)
		ctx.Line(inner.X-3, y, inner.X, y, col, 1)
	}
}

func formatTick(v float64) string {
	if math.Abs(v) >= 100 || v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// drawBars draws one bar per point, each 80% of the even horizontal
// spacing wide, rising from the panel floor.
func (g *Graph) drawBars(ctx *canvas.Context, points []graphPoint, inner canvas.Rect, scaleX, scaleY func(float64) float64, col color.Color) {
	if len(points) == 0 {
		return
	}
	spacing := inner.W / float64(len(points))
	barW := spacing * 0.8
	floor := inner.Y + inner.H
	for _, p := range points {
		x := scaleX(p.TimeMs)
		top := scaleY(p.Value)
		ctx.FillRect(canvas.Rect{X: x - barW/2, Y: top, W: barW, H: floor - top}, col)
	}
}

// drawLegend lists each series bottom-up inside the panel: color swatch
// plus name.
func (g *Graph) drawLegend(ctx *canvas.Context, series []graphSeries, panel canvas.Rect) {
	const rowH = 14.0
	const swatch = 9.0
	for i, s := range series {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("series %d", i+1)
		}
		col := canvas.ParseColor(s.Color, canvas.ParseColor(defaultPalette[i%len(defaultPalette)], nil))
		y := panel.Y + panel.H - rowH*float64(i+1)
		x := panel.X + 6
		ctx.FillRect(canvas.Rect{X: x, Y: y + (rowH-swatch)/2, W: swatch, H: swatch}, col)
		ctx.DrawText(name, x+swatch+4, y, canvas.ParseColor("white", nil))
	}
}
