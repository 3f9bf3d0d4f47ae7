package renderer

import (
	"image/color"
	"log/slog"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Cross is a diagnostic renderer: two full-canvas diagonals, optionally
// centered crosshairs and a debug label. Handy for verifying that the
// overlay tracks the video box after a resize.
type Cross struct {
	base
}

func NewCross(log *slog.Logger) *Cross {
	return &Cross{base{log}}
}

func (c *Cross) Type() string { return "cross" }

type crossStyle struct {
	Color          string  `json:"color"`
	LineWidth      float64 `json:"lineWidth"`
	ShowCrosshairs bool    `json:"showCrosshairs"`
	Label          string  `json:"label"`
}

func defaultCrossStyle() crossStyle {
	return crossStyle{Color: "#ff00ff", LineWidth: 2}
}

func (c *Cross) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	style := defaultCrossStyle()
	if err := a.DecodeStyle(&style); err != nil {
		c.logger().Warn("cross style undecodable", "id", a.ID, "err", err)
	}
	col := canvas.ParseColor(style.Color, color.NRGBA{0xff, 0x00, 0xff, 0xff})

	ctx.Line(vp.X, vp.Y, vp.X+vp.W, vp.Y+vp.H, col, style.LineWidth)
	ctx.Line(vp.X+vp.W, vp.Y, vp.X, vp.Y+vp.H, col, style.LineWidth)

	cx, cy := vp.X+vp.W/2, vp.Y+vp.H/2
	if style.ShowCrosshairs {
		ctx.Line(vp.X, cy, vp.X+vp.W, cy, col, 1)
		ctx.Line(cx, vp.Y, cx, vp.Y+vp.H, col, 1)
	}
	if style.Label != "" {
		tw, th := ctx.MeasureText(style.Label)
		drawTextWithBackground(ctx, style.Label, cx-tw/2-3, cy-th/2-3, textBackgroundOpts{
			textColor:  canvas.ParseColor("white", nil),
			background: canvas.WithAlpha(col, 0.8),
			padding:    3,
		})
	}
}
