// Command annotate replays an annotation manifest offline: it renders the
// overlay at a fixed frame rate and writes the frames as PNGs, optionally
// compositing them over a background image and encoding the sequence to a
// video via ffmpeg.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotation"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/annotator"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/canvas"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/config"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/logging"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/parser"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/renderer"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/system"
	"github.com/ashokb-nd/NeoKPI-sub001/internal/video"
)

func main() {
	// .env is optional; system env and flags win.
	config.Load()

	manifestPtr := flag.String("manifest", "", "Path to the annotation manifest (.json, .yaml)")
	outPtr := flag.String("out", config.GetEnv("ANNOTATE_OUT_DIR", "output/frames"), "Directory for rendered PNG frames (empty to skip)")
	videoPtr := flag.String("video", config.GetEnv("ANNOTATE_OUT_VIDEO", ""), "Optional output video path (requires ffmpeg)")
	bgPtr := flag.String("bg", "", "Optional background image composited under the overlay")
	widthPtr := flag.Int("width", config.GetEnvInt("ANNOTATE_WIDTH", 1280), "Canvas width in pixels")
	heightPtr := flag.Int("height", config.GetEnvInt("ANNOTATE_HEIGHT", 720), "Canvas height in pixels")
	fpsPtr := flag.Int("fps", config.GetEnvInt("ANNOTATE_FPS", 10), "Frames per second of the replay")
	durationPtr := flag.Float64("duration", 0, "Replay duration in ms (0 derives it from the manifest)")
	startPtr := flag.Float64("start", 0, "Replay start time in ms")
	workersPtr := flag.Int("workers", config.GetEnvInt("ANNOTATE_WORKERS", 0), "Render workers (0 sizes from host resources)")
	encoderPtr := flag.String("encoder", config.GetEnv("ANNOTATE_ENCODER", ""), "ffmpeg video encoder (empty probes for the best)")
	qualityPtr := flag.Int("quality", config.GetEnvInt("ANNOTATE_QUALITY", 0), "Video quality (CRF for libx264)")
	logLevelPtr := flag.String("log-level", config.GetEnv("ANNOTATE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	logFormatPtr := flag.String("log-format", config.GetEnv("ANNOTATE_LOG_FORMAT", "text"), "Log format: text or json")
	flag.Parse()

	log := logging.New(*logLevelPtr, *logFormatPtr)
	slog.SetDefault(log)

	if *manifestPtr == "" {
		fmt.Fprintln(os.Stderr, "usage: annotate -manifest <path> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := &config.Config{
		ManifestPath: *manifestPtr,
		OutputDir:    *outPtr,
		OutputVideo:  *videoPtr,
		Background:   *bgPtr,
		Width:        *widthPtr,
		Height:       *heightPtr,
		FPS:          *fpsPtr,
		DurationMs:   *durationPtr,
		StartMs:      *startPtr,
		Workers:      *workersPtr,
		Encoder:      *encoderPtr,
		Quality:      *qualityPtr,
		LogLevel:     *logLevelPtr,
		LogFormat:    *logFormatPtr,
	}

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("render failed", "err", err)
		os.Exit(1)
	}
}

// frameClock is the offline VideoSource: a settable playback position over
// a fixed canvas box.
type frameClock struct {
	ms   float64
	w, h int
}

func (c *frameClock) CurrentTimeMs() float64 { return c.ms }
func (c *frameClock) Bounds() canvas.Rect {
	return canvas.Rect{W: float64(c.w), H: float64(c.h)}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	validated, err := parser.New(log).ParseFile(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("manifest rejected: %w", err)
	}
	ref, err := annotation.ManifestFromValue(validated)
	if err != nil {
		return err
	}

	durationMs := cfg.DurationMs
	if durationMs <= 0 {
		durationMs = manifestDurationMs(validated, ref)
	}
	if durationMs <= cfg.StartMs {
		return fmt.Errorf("nothing to render: duration %.0fms, start %.0fms", durationMs, cfg.StartMs)
	}
	frameCount := int(math.Ceil((durationMs - cfg.StartMs) / 1000 * float64(cfg.FPS)))
	if frameCount < 1 {
		frameCount = 1
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = system.AutoWorkers(cfg.Width * cfg.Height * 4)
	}
	if workers > frameCount {
		workers = frameCount
	}

	bg, err := loadBackground(cfg)
	if err != nil {
		return err
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return err
		}
	}

	log.Info("rendering overlay",
		"manifest", cfg.ManifestPath, "annotations", ref.Count(),
		"frames", frameCount, "fps", cfg.FPS,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "workers", workers)

	var encFrames chan *image.RGBA
	encDone := make(chan error, 1)
	if cfg.OutputVideo != "" {
		encFrames = make(chan *image.RGBA, workers)
		enc := &video.FFmpegEncoder{}
		go func() {
			encDone <- enc.Encode(ctx, encFrames, video.Params{
				Width:      cfg.Width,
				Height:     cfg.Height,
				FPS:        cfg.FPS,
				OutputPath: cfg.OutputVideo,
				Encoder:    cfg.Encoder,
				Quality:    cfg.Quality,
			})
		}()
	}

	// Frames render in parallel batches but are delivered in order, so the
	// encoder sees a monotonic stream.
	batchSize := workers * 4
	rendered := make([]*image.RGBA, batchSize)
	renderErr := func() error {
		for base := 0; base < frameCount; base += batchSize {
			n := batchSize
			if base+n > frameCount {
				n = frameCount - base
			}
			if err := renderBatch(ctx, cfg, validated, bg, log, workers, base, n, rendered); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				idx := base + i
				frame := rendered[i]
				rendered[i] = nil
				if cfg.OutputDir != "" {
					if err := writePNG(filepath.Join(cfg.OutputDir, fmt.Sprintf("frame_%06d.png", idx)), frame); err != nil {
						return err
					}
				}
				if encFrames != nil {
					select {
					case encFrames <- frame:
					case <-ctx.Done():
						return ctx.Err()
					}
				} else {
					system.PutFrame(frame)
				}
			}
			log.Info("frames ready", "done", base+n, "total", frameCount)
		}
		return nil
	}()

	// The encoder stream is closed on every exit path so the goroutine and
	// its ffmpeg child never outlive the render.
	if encFrames != nil {
		close(encFrames)
		encErr := <-encDone
		if renderErr != nil {
			return renderErr
		}
		if encErr != nil {
			return encErr
		}
		log.Info("video written", "path", cfg.OutputVideo)
		return nil
	}
	return renderErr
}

// renderBatch renders frames [base, base+n) into rendered[0:n]. Each worker
// owns its annotator and manifest copy; the validated source map is shared
// read-only.
func renderBatch(ctx context.Context, cfg *config.Config, validated map[string]any, bg *image.RGBA, log *slog.Logger, workers, base, n int, rendered []*image.RGBA) error {
	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			clock := &frameClock{w: cfg.Width, h: cfg.Height}
			m, err := annotation.ManifestFromValue(validated)
			if err != nil {
				return err
			}
			ann, err := annotator.New(clock, log)
			if err != nil {
				return err
			}
			defer ann.Destroy()
			ann.RegisterRenderer(renderer.NewQR(log))
			if err := ann.LoadManifest(m); err != nil {
				return err
			}
			ann.Show()
			for idx := range jobs {
				clock.ms = cfg.StartMs + float64(idx)*1000/float64(cfg.FPS)
				ann.Render(true)
				rendered[idx-base] = compose(ann.Image(), bg, cfg.Width, cfg.Height)
			}
			return nil
		})
	}
	for i := base; i < base+n; i++ {
		select {
		case jobs <- i:
		case <-gctx.Done():
		}
	}
	close(jobs)
	return g.Wait()
}

// compose copies the overlay into a pooled output buffer, under-painting
// the background when one was supplied.
func compose(overlay *image.RGBA, bg *image.RGBA, w, h int) *image.RGBA {
	out := system.GetFrame(w, h)
	if bg != nil {
		draw.Draw(out, out.Bounds(), bg, image.Point{}, draw.Src)
	}
	draw.Draw(out, out.Bounds(), overlay, image.Point{}, draw.Over)
	return out
}

// loadBackground decodes and pre-scales the background image to the canvas
// size once, so per-frame compositing is a plain copy.
func loadBackground(cfg *config.Config) (*image.RGBA, error) {
	if cfg.Background == "" {
		return nil, nil
	}
	f, err := os.Open(cfg.Background)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", cfg.Background, err)
	}
	scaled := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return scaled, nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// manifestDurationMs derives the replay length: videoMetadata.durationMs
// when present, otherwise the latest annotation end time.
func manifestDurationMs(validated map[string]any, m *annotation.Manifest) float64 {
	if vm, ok := validated["videoMetadata"].(map[string]any); ok {
		switch d := vm["durationMs"].(type) {
		case float64:
			if d > 0 {
				return d
			}
		case int:
			if d > 0 {
				return float64(d)
			}
		case int64:
			if d > 0 {
				return float64(d)
			}
		}
	}
	return m.MaxEndMs()
}
