package renderer

import (
	"testing"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

func TestHelloDrawsCenteredBanner(t *testing.T) {
	ctx := canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "h1", "type": "hello",
		"timeRange": {"startMs": 0, "endMs": 1000},
		"data": {}
	}`)
	NewHello(nil).Render(ctx, a, 500, ctx.Bounds())

	// The default banner sits near the top, horizontally centered.
	height := 480.0
	bannerY := int(height*0.08) + 5
	if ctx.Image().RGBAAt(320, bannerY).A == 0 {
		t.Error("banner background should cover the horizontal center near the top")
	}
	if ctx.Image().RGBAAt(5, 5).A != 0 {
		t.Error("corners should stay transparent")
	}
	if ctx.Image().RGBAAt(320, 400).A != 0 {
		t.Error("lower canvas should stay transparent")
	}
}

func TestHelloCustomMessage(t *testing.T) {
	ctx := canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "h1", "type": "hello",
		"timeRange": {"startMs": 0, "endMs": 1000},
		"data": {"message": "hi"}
	}`)
	NewHello(nil).Render(ctx, a, 500, ctx.Bounds())

	// A two-glyph message yields a narrow box: still centered, but clear of
	// the flanks a longer message would cover.
	height := 480.0
	bannerY := int(height*0.08) + 5
	if ctx.Image().RGBAAt(320, bannerY).A == 0 {
		t.Error("short banner should still cover the center")
	}
	if ctx.Image().RGBAAt(200, bannerY).A != 0 {
		t.Error("short banner should not reach x=200")
	}
}
