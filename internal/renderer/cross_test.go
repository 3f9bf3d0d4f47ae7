package renderer

import (
	"testing"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

func TestCrossDrawsDiagonals(t *testing.T) {
	ctx := canvas.NewContext(100, 100)
	a := mustDecode(t, `{
		"id": "x1", "type": "cross",
		"timeRange": {"startMs": 0, "endMs": 1000},
		"data": {}
	}`)
	NewCross(nil).Render(ctx, a, 500, ctx.Bounds())

	img := ctx.Image()
	if img.RGBAAt(50, 50).A == 0 {
		t.Error("diagonals should cross at the viewport center")
	}
	if img.RGBAAt(10, 10).A == 0 || img.RGBAAt(90, 10).A == 0 {
		t.Error("both diagonals should be stroked")
	}
	if img.RGBAAt(50, 10).A != 0 {
		t.Error("pixels off the diagonals should stay transparent without crosshairs")
	}
}

func TestCrossCrosshairsAndLabel(t *testing.T) {
	ctx := canvas.NewContext(100, 100)
	a := mustDecode(t, `{
		"id": "x1", "type": "cross",
		"timeRange": {"startMs": 0, "endMs": 1000},
		"data": {},
		"style": {"showCrosshairs": true, "label": "overlay ok"}
	}`)
	NewCross(nil).Render(ctx, a, 500, ctx.Bounds())

	img := ctx.Image()
	if img.RGBAAt(50, 10).A == 0 {
		t.Error("vertical crosshair should be stroked")
	}
	if img.RGBAAt(10, 50).A == 0 {
		t.Error("horizontal crosshair should be stroked")
	}
	if img.RGBAAt(50, 50).A != 0xff {
		t.Error("label background should be opaque over the center")
	}
}
