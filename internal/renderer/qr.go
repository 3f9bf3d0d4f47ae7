package renderer

import (
	"image"
	"log/slog"
	"math"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

// QR renders a QR code for the payload's content at a normalized position.
// It is not part of the default registry; callers register it explicitly,
// which makes it a working example of the custom-category extension point.
type QR struct {
	base
}

func NewQR(log *slog.Logger) *QR {
	return &QR{base{log}}
}

func (q *QR) Type() string { return "qr" }

type qrData struct {
	Content  string     `json:"content"`
	Position *NormShape `json:"position"`
}

func (q *QR) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	var data qrData
	if err := a.DecodeData(&data); err != nil {
		q.logger().Warn("qr payload undecodable", "id", a.ID, "err", err)
		return
	}
	if data.Content == "" || data.Position == nil {
		q.logger().Warn("qr missing content or position", "id", a.ID)
		return
	}
	code, err := qrcode.New(data.Content, qrcode.Medium)
	if err != nil {
		q.logger().Warn("qr encode failed", "id", a.ID, "err", err)
		return
	}

	dest := data.Position.Denormalize(vp)
	side := math.Min(dest.W, dest.H)
	if side <= 0 {
		side = 120 // default edge for point-positioned codes
	}
	src := code.Image(256)
	dstRect := image.Rect(
		int(math.Round(dest.X)), int(math.Round(dest.Y)),
		int(math.Round(dest.X+side)), int(math.Round(dest.Y+side)),
	).Intersect(ctx.Image().Bounds())
	if dstRect.Empty() {
		return
	}
	xdraw.NearestNeighbor.Scale(ctx.Image(), dstRect, src, src.Bounds(), xdraw.Over, nil)
}
