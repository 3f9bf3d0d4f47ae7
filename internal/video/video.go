// Package video encodes rendered overlay frames into a video file by piping
// raw RGBA data to an external ffmpeg process.
package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
)

// Params configures one encode run.
type Params struct {
	Width, Height int
	FPS           int
	OutputPath    string
	Encoder       string // ffmpeg -c:v value; empty picks the best available
	Quality       int    // CRF for software encoders, bitrate factor for hardware
}

// Encoder consumes a stream of frames and produces a video file.
type Encoder interface {
	Encode(ctx context.Context, frames <-chan *image.RGBA, params Params) error
}

// FFmpegEncoder shells out to ffmpeg with a rawvideo RGBA stdin pipe.
type FFmpegEncoder struct{}

func (e *FFmpegEncoder) Encode(ctx context.Context, frames <-chan *image.RGBA, params Params) error {
	name := params.Encoder
	if name == "" {
		name = BestH264Encoder()
	}
	quality := params.Quality
	if quality <= 0 {
		quality = 23
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", name,
	}
	switch name {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}
	args = append(args, params.OutputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	for frame := range frames {
		if err := writeRawRGBA(stdin, frame); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw frame: %w", err)
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	return nil
}

// writeRawRGBA streams the frame's pixel data, re-packing when the buffer
// has padding or a non-zero origin.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || bounds.Min.X != 0 || bounds.Min.Y != 0 {
		packed := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix)
	return err
}

// BestH264Encoder probes ffmpeg for a hardware H.264 encoder and falls back
// to libx264.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}
