package annotator

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/renderer"
)

// fakeVideo is a VideoSource the tests steer by hand.
type fakeVideo struct {
	ms   float64
	w, h float64
}

func (v *fakeVideo) CurrentTimeMs() float64 { return v.ms }
func (v *fakeVideo) Bounds() canvas.Rect    { return canvas.Rect{W: v.w, H: v.h} }

// countingRenderer records how many times it was asked to draw.
type countingRenderer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRenderer) Type() string { return "counting" }
func (r *countingRenderer) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// panicRenderer always panics; the engine must contain it.
type panicRenderer struct{}

func (panicRenderer) Type() string { return "panicky" }
func (panicRenderer) Render(ctx *canvas.Context, a *annotation.Annotation, tMs float64, vp canvas.Rect) {
	panic("renderer blew up")
}

func timedAnnotation(id, typ string, startMs, endMs float64) *annotation.Annotation {
	return &annotation.Annotation{
		ID:        id,
		Type:      typ,
		TimeRange: &annotation.TimeRange{StartMs: &startMs, EndMs: &endMs},
		Data:      json.RawMessage(`{}`),
	}
}

func newTestAnnotator(t *testing.T, video *fakeVideo) *Annotator {
	t.Helper()
	a, err := New(video, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Destroy)
	return a
}

func TestNewRequiresVideoSource(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("nil video source should be rejected")
	}
}

func TestDetectionVisibilityOverTime(t *testing.T) {
	video := &fakeVideo{ms: 3000, w: 640, h: 480}
	a := newTestAnnotator(t, video)

	det := timedAnnotation("det-1", "detection", 1000, 5000)
	det.Data = json.RawMessage(`{"bbox": {"x": 0.1, "y": 0.1, "width": 0.2, "height": 0.3}}`)
	if err := a.AddAnnotation(det); err != nil {
		t.Fatal(err)
	}
	a.Show()

	// Inside the window the box border is stroked at its top-left corner.
	if a.Image().RGBAAt(64, 48).A == 0 {
		t.Error("detection should be drawn at 3000ms")
	}

	// Past the window the frame clears.
	video.ms = 6000
	a.HandleTimeUpdate()
	if a.Image().RGBAAt(64, 48).A != 0 {
		t.Error("detection should be gone at 6000ms")
	}
}

func TestRenderDedupesUnchangedTime(t *testing.T) {
	video := &fakeVideo{ms: 1000, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	counter := &countingRenderer{}
	a.RegisterRenderer(counter)
	if err := a.AddAnnotation(timedAnnotation("c-1", "counting", 0, 10000)); err != nil {
		t.Fatal(err)
	}

	a.Show()
	if got := counter.count(); got != 1 {
		t.Fatalf("Show should render once, got %d", got)
	}

	// Same playback position: time-update renders are skipped.
	a.HandleTimeUpdate()
	a.HandleTimeUpdate()
	if got := counter.count(); got != 1 {
		t.Errorf("unchanged time should not redraw, got %d renders", got)
	}

	// Forced renders always run.
	a.Render(true)
	if got := counter.count(); got != 2 {
		t.Errorf("forced render should redraw, got %d renders", got)
	}

	// A moved clock renders again.
	video.ms = 1001
	a.HandleTimeUpdate()
	if got := counter.count(); got != 3 {
		t.Errorf("advanced time should redraw, got %d renders", got)
	}
}

func TestHiddenOverlayDoesNotRender(t *testing.T) {
	video := &fakeVideo{ms: 500, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	counter := &countingRenderer{}
	a.RegisterRenderer(counter)
	if err := a.AddAnnotation(timedAnnotation("c-1", "counting", 0, 10000)); err != nil {
		t.Fatal(err)
	}

	a.HandleTimeUpdate()
	if counter.count() != 0 {
		t.Error("hidden overlay must not render")
	}

	a.Show()
	if !a.IsVisible() {
		t.Error("Show should make the overlay visible")
	}
	a.Hide()
	if a.IsVisible() {
		t.Error("Hide should suppress the overlay")
	}
	video.ms = 600
	a.HandleTimeUpdate()
	if counter.count() != 1 {
		t.Error("no renders expected after Hide")
	}
}

func TestPanickingRendererIsIsolated(t *testing.T) {
	video := &fakeVideo{ms: 100, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	counter := &countingRenderer{}
	a.RegisterRenderer(panicRenderer{})
	a.RegisterRenderer(counter)
	if err := a.AddAnnotation(timedAnnotation("p-1", "panicky", 0, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := a.AddAnnotation(timedAnnotation("c-1", "counting", 0, 1000)); err != nil {
		t.Fatal(err)
	}

	a.Show() // must not propagate the panic
	if counter.count() != 1 {
		t.Error("annotations after a panicking renderer should still draw")
	}
}

func TestUnknownCategoryIsSkipped(t *testing.T) {
	video := &fakeVideo{ms: 100, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	if err := a.AddAnnotation(timedAnnotation("x-1", "holographic", 0, 1000)); err != nil {
		t.Fatal(err)
	}
	a.Show() // nothing registered for "holographic"; must not panic

	if got := len(a.Annotations()); got != 1 {
		t.Errorf("annotation should still be held, got %d", got)
	}
}

func TestLoadManifest(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	if err := a.LoadManifest(nil); err == nil {
		t.Error("nil manifest should be rejected")
	}

	m := annotation.New(nil)
	m.Add(timedAnnotation("a-1", "text", 0, 1000))
	m.Add(timedAnnotation("a-2", "text", 0, 1000))
	if err := a.LoadManifest(m); err != nil {
		t.Fatal(err)
	}
	if got := len(a.Annotations()); got != 2 {
		t.Fatalf("expected 2 annotations after load, got %d", got)
	}

	// Loading again replaces, never merges.
	m2 := annotation.New(nil)
	m2.Add(timedAnnotation("b-1", "text", 0, 1000))
	if err := a.LoadManifest(m2); err != nil {
		t.Fatal(err)
	}
	if got := len(a.Annotations()); got != 1 {
		t.Errorf("expected 1 annotation after replacing load, got %d", got)
	}
}

func TestAddRemoveClear(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	if err := a.AddAnnotation(nil); err == nil {
		t.Error("nil annotation should be rejected")
	}
	if err := a.AddAnnotation(timedAnnotation("a-1", "text", 0, 1000)); err != nil {
		t.Fatal(err)
	}
	if !a.RemoveAnnotation("a-1") {
		t.Error("existing id should be removed")
	}
	if a.RemoveAnnotation("a-1") {
		t.Error("second removal should report false")
	}

	if err := a.AddAnnotation(timedAnnotation("a-2", "text", 0, 1000)); err != nil {
		t.Fatal(err)
	}
	a.ClearAnnotations()
	if got := len(a.Annotations()); got != 0 {
		t.Errorf("expected empty after clear, got %d", got)
	}
}

func TestResizeTracksVideoBounds(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	if b := a.Image().Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("initial canvas = %v", b)
	}
	video.w, video.h = 1280, 720
	a.Resize()
	if b := a.Image().Bounds(); b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("canvas after resize = %v", b)
	}
	if p := a.Placement(); p.W != 1280 || p.H != 720 {
		t.Errorf("placement after resize = %+v", p)
	}
}

func TestDestroyIsTerminal(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a, err := New(video, nil)
	if err != nil {
		t.Fatal(err)
	}

	a.Destroy()
	a.Destroy() // idempotent

	if a.Image() != nil {
		t.Error("destroyed engine should expose no buffer")
	}
	if a.Annotations() != nil {
		t.Error("destroyed engine should hold no annotations")
	}
	if err := a.LoadManifest(annotation.New(nil)); err == nil {
		t.Error("destroyed engine should reject loads")
	}
	if err := a.AddAnnotation(timedAnnotation("a-1", "text", 0, 1000)); err == nil {
		t.Error("destroyed engine should reject adds")
	}
	a.Show()
	if a.IsVisible() {
		t.Error("destroyed engine cannot become visible")
	}
}

func TestRegisterRendererReplaces(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	first := &countingRenderer{}
	second := &countingRenderer{}
	a.RegisterRenderer(first)
	a.RegisterRenderer(second) // same category, last one wins

	if err := a.AddAnnotation(timedAnnotation("c-1", "counting", 0, 1000)); err != nil {
		t.Fatal(err)
	}
	a.Show()
	if first.count() != 0 || second.count() != 1 {
		t.Errorf("replacement renderer should draw: first=%d second=%d",
			first.count(), second.count())
	}
}

func TestQRRendererIsOptIn(t *testing.T) {
	video := &fakeVideo{ms: 100, w: 640, h: 480}
	a := newTestAnnotator(t, video)

	qr := timedAnnotation("q-1", "qr", 0, 1000)
	qr.Data = json.RawMessage(`{"content": "https://example.com", "position": {"x": 0.25, "y": 0.25, "width": 0.5, "height": 0.5}}`)
	if err := a.AddAnnotation(qr); err != nil {
		t.Fatal(err)
	}

	a.Show()
	if a.Image().RGBAAt(320, 240).A != 0 {
		t.Fatal("qr category must not draw before its renderer is registered")
	}

	a.RegisterRenderer(renderer.NewQR(slog.Default()))
	a.Render(true)
	if a.Image().RGBAAt(320, 240).A == 0 {
		t.Error("registered qr renderer should draw at the annotation position")
	}
}

func TestDefaultRendererSetRegistered(t *testing.T) {
	video := &fakeVideo{ms: 0, w: 320, h: 240}
	a := newTestAnnotator(t, video)

	for _, r := range renderer.Defaults(slog.Default()) {
		ann := timedAnnotation("d-"+r.Type(), r.Type(), 0, 1000)
		if err := a.AddAnnotation(ann); err != nil {
			t.Fatal(err)
		}
	}
	a.Show() // every built-in category renders (or logs) without panicking
}
