package renderer

import (
	"log/slog"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Hello is a smoke-test renderer: one centered message near the top of the
// canvas with an auto-sized rounded background. It exercises the same text
// metrics machinery as the text renderer.
type Hello struct {
	base
}

func NewHello(log *slog.Logger) *Hello {
	return &Hello{base{log}}
}

func (h *Hello) Type() string { return "hello" }

type helloData struct {
	Message string `json:"message"`
}

func (h *Hello) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data helloData
	if err := a.DecodeData(&data); err != nil {
		h.logger().Warn("hello payload undecodable", "id", a.ID, "err", err)
		return
	}
	msg := data.Message
	if msg == "" {
		msg = "Annotations online"
	}
	const pad = 6.0
	tw, _ := ctx.MeasureText(msg)
	x := vp.X + (vp.W-tw-2*pad)/2
	y := vp.Y + vp.H*0.08
	drawTextWithBackground(ctx, msg, x, y, textBackgroundOpts{
		textColor:    canvas.ParseColor("white", nil),
		background:   canvas.ParseColor("#000000b3", nil),
		padding:      pad,
		cornerRadius: 5,
	})
}
