// Package annotator ties the pieces together: it owns the overlay canvas,
// the renderer registry and the loaded manifest, and redraws the overlay in
// response to playback time updates and layout changes.
package annotator

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/renderer"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/system"
)

// VideoSource abstracts the video element the overlay tracks: the current
// playback position and the on-screen pixel box.
type VideoSource interface {
	CurrentTimeMs() float64
	Bounds() canvas.Rect
}

// Annotator owns the overlay canvas, the renderer registry and at most one
// manifest at a time. All methods are safe for use from a single goroutine;
// a mutex guards against accidental cross-goroutine calls.
type Annotator struct {
	mu        sync.Mutex
	log       *slog.Logger
	video     VideoSource
	ctx       *canvas.Context
	placement canvas.Rect // where the overlay sits over the page
	manifest  *annotation.Manifest
	renderers map[string]renderer.Renderer
	visible   bool
	destroyed bool
	lastMs    float64
}

// New creates an engine over the given video source with the default
// renderer set registered. The overlay starts hidden with an empty
// manifest. A nil logger falls back to slog.Default().
func New(video VideoSource, log *slog.Logger) (*Annotator, error) {
	if video == nil {
		return nil, fmt.Errorf("annotator requires a video source")
	}
	if log == nil {
		log = slog.Default()
	}
	a := &Annotator{
		log:       log,
		video:     video,
		manifest:  annotation.New(nil),
		renderers: map[string]renderer.Renderer{},
		lastMs:    -1,
	}
	for _, r := range renderer.Defaults(log) {
		a.renderers[r.Type()] = r
	}
	a.allocateCanvas()
	return a, nil
}

// allocateCanvas sizes the overlay buffer to the video's current on-screen
// box. Callers hold the lock.
func (a *Annotator) allocateCanvas() {
	bounds := a.video.Bounds()
	a.placement = bounds
	if a.ctx != nil {
		system.PutFrame(a.ctx.Image())
	}
	a.ctx = canvas.Wrap(system.GetFrame(int(bounds.W), int(bounds.H)))
}

// RegisterRenderer adds (or replaces, last one wins) the renderer for its
// category. This is the extension point for custom annotation types.
func (a *Annotator) RegisterRenderer(r renderer.Renderer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.renderers[r.Type()] = r
}

// LoadManifest validates and installs a manifest, discarding the previous
// one. Ownership of the manifest transfers to the engine.
func (a *Annotator) LoadManifest(m *annotation.Manifest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("annotator destroyed")
	}
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}
	if !m.Validate() {
		return fmt.Errorf("manifest failed validation")
	}
	a.manifest = m
	a.log.Info("manifest loaded", "annotations", m.Count(), "types", m.Types())
	if a.visible {
		a.render(true)
	}
	return nil
}

// AddAnnotation adds one annotation to the held manifest and redraws when
// visible.
func (a *Annotator) AddAnnotation(item *annotation.Annotation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return fmt.Errorf("annotator destroyed")
	}
	if item == nil {
		return fmt.Errorf("annotation is nil")
	}
	a.manifest.Add(item)
	if a.visible {
		a.render(true)
	}
	return nil
}

// RemoveAnnotation removes by id and reports whether anything was removed.
func (a *Annotator) RemoveAnnotation(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return false
	}
	removed := a.manifest.Remove(id)
	if removed && a.visible {
		a.render(true)
	}
	return removed
}

// ClearAnnotations empties the held manifest, keeping version and metadata.
func (a *Annotator) ClearAnnotations() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.manifest.Clear()
	if a.visible {
		a.render(true)
	}
}

// Show makes the overlay visible and forces an immediate render.
func (a *Annotator) Show() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.visible = true
	a.render(true)
}

// Hide suppresses the overlay; no further redraw work happens until Show.
func (a *Annotator) Hide() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.visible = false
}

// Resize recomputes the canvas pixel dimensions to exactly cover the
// video's current on-screen box and redraws when visible.
func (a *Annotator) Resize() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.allocateCanvas()
	a.lastMs = -1
	if a.visible {
		a.render(true)
	}
}

// Destroy releases the canvas and clears the manifest and registry. The
// engine is unusable afterwards.
func (a *Annotator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	if a.ctx != nil {
		system.PutFrame(a.ctx.Image())
	}
	a.ctx = nil
	a.manifest = nil
	a.renderers = nil
	a.visible = false
	a.destroyed = true
}

// HandleTimeUpdate is the playback-event entry point: it redraws only when
// the video time moved since the last render.
func (a *Annotator) HandleTimeUpdate() {
	a.Render(false)
}

// Render redraws the overlay. Without force it is a no-op when the video
// time has not changed since the last render.
func (a *Annotator) Render(force bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.render(force)
}

func (a *Annotator) render(force bool) {
	if a.destroyed || !a.visible || a.ctx == nil {
		return
	}
	tMs := a.video.CurrentTimeMs()
	if !force && tMs == a.lastMs {
		return
	}
	a.ctx.Clear()
	vp := a.ctx.Bounds()
	for _, item := range a.manifest.ItemsAt(tMs) {
		r, ok := a.renderers[item.Type]
		if !ok {
			a.log.Debug("no renderer for category", "type", item.Type, "id", item.ID)
			continue
		}
		a.renderOne(r, item, tMs, vp)
	}
	a.lastMs = tMs
}

// renderOne isolates a single renderer invocation so a panicking renderer
// never blanks the rest of the frame.
func (a *Annotator) renderOne(r renderer.Renderer, item *annotation.Annotation, tMs float64, vp canvas.Rect) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log.Warn("renderer panicked, annotation skipped",
				"type", item.Type, "id", item.ID, "panic", rec)
		}
	}()
	r.Render(a.ctx, item, tMs, vp)
}

// IsVisible reports whether the overlay is currently showing.
func (a *Annotator) IsVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

// Annotations returns the flattened current annotation list.
func (a *Annotator) Annotations() []*annotation.Annotation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return nil
	}
	return a.manifest.All()
}

// Image exposes the overlay buffer, e.g. for compositing or encoding.
func (a *Annotator) Image() *image.RGBA {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ctx == nil {
		return nil
	}
	return a.ctx.Image()
}

// Placement returns where the overlay sits over the page, matching the
// video's on-screen box at the last resize.
func (a *Annotator) Placement() canvas.Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.placement
}
