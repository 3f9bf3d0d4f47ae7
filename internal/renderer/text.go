package renderer

import (
	"log/slog"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Text draws a free-floating label with a background box at a normalized
// position, anchored at one of nine positions.
type Text struct {
	base
}

func NewText(log *slog.Logger) *Text {
	return &Text{base{log}}
}

func (t *Text) Type() string { return "text" }

type textData struct {
	Text     string     `json:"text"`
	Position *NormShape `json:"position"`
}

type textStyle struct {
	Anchor          string  `json:"anchor"`
	TextColor       string  `json:"textColor"`
	BackgroundColor string  `json:"backgroundColor"`
	Padding         float64 `json:"padding"`
	CornerRadius    float64 `json:"cornerRadius"`
	BorderColor     string  `json:"borderColor"`
	BorderWidth     float64 `json:"borderWidth"`
}

func defaultTextStyle() textStyle {
	return textStyle{
		Anchor:          "top-left",
		TextColor:       "#ffffff",
		BackgroundColor: "#000000b3",
		Padding:         4,
		CornerRadius:    3,
		BorderWidth:     1,
	}
}

func (t *Text) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data textData
	if err := a.DecodeData(&data); err != nil {
		t.logger().Warn("text payload undecodable", "id", a.ID, "err", err)
		return
	}
	if data.Text == "" || data.Position == nil {
		t.logger().Warn("text missing text or position", "id", a.ID)
		return
	}
	style := defaultTextStyle()
	if err := a.DecodeStyle(&style); err != nil {
		t.logger().Warn("text style undecodable", "id", a.ID, "err", err)
	}

	origin := data.Position.Denormalize(vp)
	tw, th := ctx.MeasureText(data.Text)
	w := tw + 2*style.Padding
	h := th + 2*style.Padding
	x, y := anchorOffset(style.Anchor, origin.X, origin.Y, w, h)

	box := drawTextWithBackground(ctx, data.Text, x, y, textBackgroundOpts{
		textColor:    canvas.ParseColor(style.TextColor, canvas.ParseColor("white", nil)),
		background:   canvas.ParseColor(style.BackgroundColor, nil),
		padding:      style.Padding,
		cornerRadius: style.CornerRadius,
	})
	if style.BorderColor != "" {
		ctx.StrokeRect(box, canvas.ParseColor(style.BorderColor, nil), style.BorderWidth)
	}
}

// anchorOffset shifts the draw origin so the measured box hangs off the
// anchor point in the requested direction. Anchors combine top/center/bottom
// with left/center/right; "center" alone centers both axes.
func anchorOffset(anchor string, x, y, w, h float64) (float64, float64) {
	switch anchor {
	case "top-center":
		return x - w/2, y
	case "top-right":
		return x - w, y
	case "center-left":
		return x, y - h/2
	case "center":
		return x - w/2, y - h/2
	case "center-right":
		return x - w, y - h/2
	case "bottom-left":
		return x, y - h
	case "bottom-center":
		return x - w/2, y - h
	case "bottom-right":
		return x - w, y - h
	default: // top-left
		return x, y
	}
}
