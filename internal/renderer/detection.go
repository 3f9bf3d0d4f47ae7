package renderer

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// Detection draws bounding boxes with optional class labels and a
// confidence bar.
type Detection struct {
	base
}

func NewDetection(log *slog.Logger) *Detection {
	return &Detection{base{log}}
}

func (d *Detection) Type() string { return "detection" }

type detectionData struct {
	BBox       *NormShape `json:"bbox"`
	Class      string     `json:"class"`
	Confidence *float64   `json:"confidence"`
	TrackID    string     `json:"trackId"`
}

type detectionStyle struct {
	BorderColor       string  `json:"borderColor"`
	BorderWidth       float64 `json:"borderWidth"`
	FillOpacity       float64 `json:"fillOpacity"`
	ShowLabel         bool    `json:"showLabel"`
	LabelPosition     string  `json:"labelPosition"`
	ShowConfidenceBar bool    `json:"showConfidenceBar"`
}

func defaultDetectionStyle() detectionStyle {
	return detectionStyle{
		BorderColor:   "#ff0000",
		BorderWidth:   2,
		ShowLabel:     true,
		LabelPosition: "top-left",
	}
}

func (d *Detection) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data detectionData
	if err := a.DecodeData(&data); err != nil {
		d.logger().Warn("detection payload undecodable", "id", a.ID, "err", err)
		return
	}
	if data.BBox == nil || !data.BBox.IsBox() {
		d.logger().Warn("detection missing bbox", "id", a.ID)
		return
	}
	style := defaultDetectionStyle()
	if err := a.DecodeStyle(&style); err != nil {
		d.logger().Warn("detection style undecodable", "id", a.ID, "err", err)
	}

	box := data.BBox.Denormalize(vp)
	border := canvas.ParseColor(style.BorderColor, canvas.ParseColor("#ff0000", nil))
	if style.FillOpacity > 0 {
		ctx.FillRect(box, canvas.WithAlpha(border, style.FillOpacity))
	}
	ctx.StrokeRect(box, border, style.BorderWidth)

	if style.ShowLabel {
		if label := d.labelText(data); label != "" {
			d.drawLabel(ctx, label, box, style, border)
		}
	}
	if style.ShowConfidenceBar && data.Confidence != nil {
		d.drawConfidenceBar(ctx, box, *data.Confidence, border)
	}
}

func (d *Detection) labelText(data detectionData) string {
	label := data.Class
	if data.Confidence != nil {
		if label != "" {
			label += " "
		}
		label += fmt.Sprintf("%.0f%%", *data.Confidence*100)
	}
	if data.TrackID != "" {
		label += fmt.Sprintf(" [%s]", data.TrackID)
	}
	return label
}

// drawLabel anchors the label at one of five positions relative to the box.
func (d *Detection) drawLabel(ctx *canvas.Context, label string, box canvas.Rect, style detectionStyle, border color.Color) {
	const pad = 3.0
	tw, th := ctx.MeasureText(label)
	w := tw + 2*pad
	h := th + 2*pad

	var x, y float64
	switch style.LabelPosition {
	case "top-right":
		x, y = box.X+box.W-w, box.Y-h
	case "bottom-left":
		x, y = box.X, box.Y+box.H
	case "bottom-right":
		x, y = box.X+box.W-w, box.Y+box.H
	case "center":
		x, y = box.X+(box.W-w)/2, box.Y+(box.H-h)/2
	default: // top-left
		x, y = box.X, box.Y-h
	}
	drawTextWithBackground(ctx, label, x, y, textBackgroundOpts{
		textColor:  canvas.ParseColor("white", nil),
		background: canvas.WithAlpha(border, 0.85),
		padding:    pad,
	})
}

// drawConfidenceBar paints a horizontal bar under the box whose filled
// width scales linearly with confidence over a full-width translucent
// background.
func (d *Detection) drawConfidenceBar(ctx *canvas.Context, box canvas.Rect, confidence float64, border color.Color) {
	const barHeight = 4.0
	const barGap = 2.0
	bar := canvas.Rect{X: box.X, Y: box.Y + box.H + barGap, W: box.W, H: barHeight}
	ctx.FillRect(bar, canvas.WithAlpha(border, 0.25))
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	fill := bar
	fill.W = confidence * box.W
	ctx.FillRect(fill, border)
}
