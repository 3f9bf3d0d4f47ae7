package renderer

import (
	"testing"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
)

func mustDecode(t *testing.T, raw string) *annotation.Annotation {
	t.Helper()
	a, err := annotation.Decode([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDetectionStrokesDenormalizedBox(t *testing.T) {
	ctx := canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "d1", "type": "detection",
		"timeRange": {"startMs": 1000, "endMs": 5000},
		"data": {"bbox": {"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.3}}
	}`)

	NewDetection(nil).Render(ctx, a, 3000, ctx.Bounds())

	// bbox {0.1, 0.1, 0.2, 0.3} on 640x480 is the pixel box (64,48) 128x144.
	img := ctx.Image()
	if img.RGBAAt(64, 48).R != 0xff {
		t.Error("top-left corner (64,48) should carry the red stroke")
	}
	if img.RGBAAt(192, 48).R != 0xff {
		t.Error("top-right corner (192,48) should carry the red stroke")
	}
	if img.RGBAAt(64, 192).R != 0xff {
		t.Error("bottom-left corner (64,192) should carry the red stroke")
	}
	if img.RGBAAt(128, 120).A != 0 {
		t.Error("box interior should stay unfilled by default")
	}
}

func TestDetectionFillOpacity(t *testing.T) {
	ctx := canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "d1", "type": "detection",
		"timeRange": {"startMs": 0, "endMs": 5000},
		"data": {"bbox": {"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.3}},
		"style": {"fillOpacity": 0.2}
	}`)
	NewDetection(nil).Render(ctx, a, 1000, ctx.Bounds())
	inside := ctx.Image().RGBAAt(128, 120)
	if inside.A == 0 {
		t.Error("interior should be filled at low alpha")
	}
	if inside.A == 0xff {
		t.Error("interior fill should be translucent")
	}
}

func TestDetectionConfidenceBarScalesLinearly(t *testing.T) {
	// A 1000px-wide viewport puts a width-0.1 bbox at exactly 100px.
	ctx := canvas.NewContext(1000, 480)
	a := mustDecode(t, `{
		"id": "d1", "type": "detection",
		"timeRange": {"startMs": 0, "endMs": 5000},
		"data": {
			"bbox": {"x": 0.1, "y": 0.1, "width": 0.1, "height": 0.1},
			"confidence": 0.5
		},
		"style": {"showConfidenceBar": true, "showLabel": false}
	}`)
	NewDetection(nil).Render(ctx, a, 1000, ctx.Bounds())

	// Box is (100,48) 100x48; the bar sits 2px below with height 4.
	img := ctx.Image()
	barY := 48 + 48 + 4
	if img.RGBAAt(100+25, barY).A != 0xff {
		t.Error("bar should be solidly filled inside the 50px confidence width")
	}
	if a := img.RGBAAt(100+75, barY).A; a == 0 || a == 0xff {
		t.Errorf("beyond the filled width only the translucent track should remain, alpha=%d", a)
	}
}

func TestDetectionInvisibleOutsideWindow(t *testing.T) {
	_ = canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "d1", "type": "detection",
		"timeRange": {"startMs": 1000, "endMs": 5000},
		"data": {"bbox": {"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.3}}
	}`)
	if a.VisibleAt(6000) {
		t.Fatal("annotation should be invisible at 6000ms")
	}
}

func TestDetectionMissingBBoxSkipsQuietly(t *testing.T) {
	ctx := canvas.NewContext(640, 480)
	a := mustDecode(t, `{
		"id": "d1", "type": "detection",
		"timeRange": {"startMs": 0, "endMs": 5000},
		"data": {"class": "car"}
	}`)
	NewDetection(nil).Render(ctx, a, 1000, ctx.Bounds()) // must not panic

	bounds := ctx.Image().Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 16 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 16 {
			if ctx.Image().RGBAAt(x, y).A != 0 {
				t.Fatalf("nothing should be drawn without a bbox, pixel (%d,%d) set", x, y)
			}
		}
	}
}

func TestDetectionLabelPositions(t *testing.T) {
	for _, pos := range []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"} {
		t.Run(pos, func(t *testing.T) {
			ctx := canvas.NewContext(640, 480)
			a := mustDecode(t, `{
				"id": "d1", "type": "detection",
				"timeRange": {"startMs": 0, "endMs": 5000},
				"data": {"bbox": {"x": 0.3, "y": 0.3, "width": 0.3, "height": 0.3}, "class": "car", "confidence": 0.8},
				"style": {"labelPosition": "`+pos+`"}
			}`)
			NewDetection(nil).Render(ctx, a, 1000, ctx.Bounds()) // must not panic
		})
	}
}
