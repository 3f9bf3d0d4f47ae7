package renderer

import (
	"fmt"
	"testing"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

func TestAnchorOffset(t *testing.T) {
	const x, y, w, h = 100.0, 50.0, 20.0, 10.0

	tests := []struct {
		anchor string
		wantX  float64
		wantY  float64
	}{
		{"top-left", 100, 50},
		{"top-center", 90, 50},
		{"top-right", 80, 50},
		{"center-left", 100, 45},
		{"center", 90, 45},
		{"center-right", 80, 45},
		{"bottom-left", 100, 40},
		{"bottom-center", 90, 40},
		{"bottom-right", 80, 40},
	}

	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			gotX, gotY := anchorOffset(tt.anchor, x, y, w, h)
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("anchorOffset(%q) = (%v, %v), want (%v, %v)",
					tt.anchor, gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}

	// Unknown anchors fall back to top-left.
	if gotX, gotY := anchorOffset("sideways", x, y, w, h); gotX != x || gotY != y {
		t.Errorf("unknown anchor = (%v, %v), want (%v, %v)", gotX, gotY, x, y)
	}
}

func TestTextRenderAnchorsBox(t *testing.T) {
	// Anchor point is the viewport center; the background box must land on
	// the side of it the anchor dictates.
	ctx := canvas.NewContext(200, 100)
	tw, th := ctx.MeasureText("hi")
	pad := 4.0
	w, h := tw+2*pad, th+2*pad

	render := func(t *testing.T, anchor string) *canvas.Context {
		t.Helper()
		c := canvas.NewContext(200, 100)
		a := mustDecode(t, fmt.Sprintf(`{
			"id": "t1", "type": "text",
			"timeRange": {"startMs": 0, "endMs": 1000},
			"data": {"text": "hi", "position": {"x": 0.5, "y": 0.5}},
			"style": {"anchor": %q, "borderColor": ""}
		}`, anchor))
		NewText(nil).Render(c, a, 500, c.Bounds())
		return c
	}

	// top-left hangs down-right of (100,50).
	c := render(t, "top-left")
	if c.Image().RGBAAt(100+int(w/2), 50+int(h/2)).A == 0 {
		t.Error("top-left anchored box should cover pixels below-right of the point")
	}
	if c.Image().RGBAAt(100-int(w/2), 50-int(h/2)).A != 0 {
		t.Error("top-left anchored box must not cover pixels above-left of the point")
	}

	// bottom-right hangs up-left of (100,50).
	c = render(t, "bottom-right")
	if c.Image().RGBAAt(100-int(w/2), 50-int(h/2)).A == 0 {
		t.Error("bottom-right anchored box should cover pixels above-left of the point")
	}
	if c.Image().RGBAAt(100+int(w/2), 50+int(h/2)).A != 0 {
		t.Error("bottom-right anchored box must not cover pixels below-right of the point")
	}

	// center straddles the point.
	c = render(t, "center")
	if c.Image().RGBAAt(100, 50).A == 0 {
		t.Error("center anchored box should cover the anchor point")
	}
}

func TestTextMissingFieldsSkips(t *testing.T) {
	ctx := canvas.NewContext(200, 100)
	a := mustDecode(t, `{
		"id": "t1", "type": "text",
		"timeRange": {"startMs": 0, "endMs": 1000},
		"data": {"text": "orphan"}
	}`)
	NewText(nil).Render(ctx, a, 500, ctx.Bounds())
	if ctx.Image().RGBAAt(1, 1).A != 0 {
		t.Error("text without a position must not draw")
	}
}
