// Package canvas provides a 2D drawing context over an in-memory RGBA image.
// All shapes are rasterized with golang.org/x/image/vector; axis-aligned
// rectangles take the fast path through image/draw so their pixel edges are
// exact.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Rect is a pixel-space rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Point is a pixel-space point.
type Point struct {
	X, Y float64
}

// kappa approximates a quarter circle with a cubic Bezier.
const kappa = 0.5522847498307936

// Context draws onto an RGBA image. It is not safe for concurrent use.
type Context struct {
	img  *image.RGBA
	w, h int
	face font.Face
}

// NewContext allocates a fresh transparent canvas of the given size.
func NewContext(w, h int) *Context {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Wrap(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// Wrap builds a context around an existing buffer, e.g. one taken from a
// frame pool. The buffer must be anchored at (0,0).
func Wrap(img *image.RGBA) *Context {
	return &Context{
		img:  img,
		w:    img.Bounds().Dx(),
		h:    img.Bounds().Dy(),
		face: basicfont.Face7x13,
	}
}

// Image returns the backing image.
func (c *Context) Image() *image.RGBA { return c.img }

// Size returns the canvas dimensions in pixels.
func (c *Context) Size() (int, int) { return c.w, c.h }

// Bounds returns the full canvas as a Rect anchored at the origin.
func (c *Context) Bounds() Rect { return Rect{0, 0, float64(c.w), float64(c.h)} }

// Clear resets every pixel to fully transparent.
func (c *Context) Clear() {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
}

// FillRect fills an axis-aligned rectangle. Edges are rounded to whole
// pixels.
func (c *Context) FillRect(r Rect, col color.Color) {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	dst := image.Rect(x0, y0, x1, y1).Intersect(c.img.Bounds())
	if dst.Empty() {
		return
	}
	draw.Draw(c.img, dst, image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokeRect strokes the outline of a rectangle with the stroke centered on
// the rectangle's edges.
func (c *Context) StrokeRect(r Rect, col color.Color, width float64) {
	if width <= 0 {
		return
	}
	hw := width / 2
	c.FillRect(Rect{r.X - hw, r.Y - hw, r.W + width, width}, col)         // top
	c.FillRect(Rect{r.X - hw, r.Y + r.H - hw, r.W + width, width}, col)   // bottom
	c.FillRect(Rect{r.X - hw, r.Y + hw, width, r.H - width}, col)         // left
	c.FillRect(Rect{r.X + r.W - hw, r.Y + hw, width, r.H - width}, col)   // right
}

func (c *Context) fill(col color.Color, build func(r *vector.Rasterizer)) {
	ras := vector.NewRasterizer(c.w, c.h)
	ras.DrawOp = draw.Over
	build(ras)
	ras.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

// Line draws a straight line segment of the given width.
func (c *Context) Line(x1, y1, x2, y2 float64, col color.Color, width float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 || width <= 0 {
		return
	}
	// Perpendicular half-width offset; the segment becomes a filled quad.
	nx := -dy / length * width / 2
	ny := dx / length * width / 2
	c.fill(col, func(r *vector.Rasterizer) {
		r.MoveTo(float32(x1+nx), float32(y1+ny))
		r.LineTo(float32(x2+nx), float32(y2+ny))
		r.LineTo(float32(x2-nx), float32(y2-ny))
		r.LineTo(float32(x1-nx), float32(y1-ny))
		r.ClosePath()
	})
}

// DashedLine draws a line as alternating dash/gap segments.
func (c *Context) DashedLine(x1, y1, x2, y2 float64, col color.Color, width, dash, gap float64) {
	if dash <= 0 {
		c.Line(x1, y1, x2, y2, col, width)
		return
	}
	if gap <= 0 {
		gap = dash
	}
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	for pos := 0.0; pos < length; pos += dash + gap {
		end := math.Min(pos+dash, length)
		c.Line(x1+ux*pos, y1+uy*pos, x1+ux*end, y1+uy*end, col, width)
	}
}

// Polyline connects consecutive points with line segments.
func (c *Context) Polyline(pts []Point, col color.Color, width float64) {
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, col, width)
	}
}

// FillCircle fills a circle centered at (cx, cy).
func (c *Context) FillCircle(cx, cy, radius float64, col color.Color) {
	if radius <= 0 {
		return
	}
	k := radius * kappa
	c.fill(col, func(r *vector.Rasterizer) {
		r.MoveTo(float32(cx+radius), float32(cy))
		r.CubeTo(float32(cx+radius), float32(cy+k), float32(cx+k), float32(cy+radius), float32(cx), float32(cy+radius))
		r.CubeTo(float32(cx-k), float32(cy+radius), float32(cx-radius), float32(cy+k), float32(cx-radius), float32(cy))
		r.CubeTo(float32(cx-radius), float32(cy-k), float32(cx-k), float32(cy-radius), float32(cx), float32(cy-radius))
		r.CubeTo(float32(cx+k), float32(cy-radius), float32(cx+radius), float32(cy-k), float32(cx+radius), float32(cy))
		r.ClosePath()
	})
}

// FillRoundedRect fills a rectangle whose corners are quadratic curves of
// the given radius. A non-positive radius degrades to FillRect.
func (c *Context) FillRoundedRect(r Rect, radius float64, col color.Color) {
	if radius <= 0 {
		c.FillRect(r, col)
		return
	}
	maxR := math.Min(r.W, r.H) / 2
	if radius > maxR {
		radius = maxR
	}
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	c.fill(col, func(ras *vector.Rasterizer) {
		ras.MoveTo(float32(x0+radius), float32(y0))
		ras.LineTo(float32(x1-radius), float32(y0))
		ras.QuadTo(float32(x1), float32(y0), float32(x1), float32(y0+radius))
		ras.LineTo(float32(x1), float32(y1-radius))
		ras.QuadTo(float32(x1), float32(y1), float32(x1-radius), float32(y1))
		ras.LineTo(float32(x0+radius), float32(y1))
		ras.QuadTo(float32(x0), float32(y1), float32(x0), float32(y1-radius))
		ras.LineTo(float32(x0), float32(y0+radius))
		ras.QuadTo(float32(x0), float32(y0), float32(x0+radius), float32(y0))
		ras.ClosePath()
	})
}

// FillPolygon fills an arbitrary closed polygon.
func (c *Context) FillPolygon(pts []Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	c.fill(col, func(r *vector.Rasterizer) {
		r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
		for _, p := range pts[1:] {
			r.LineTo(float32(p.X), float32(p.Y))
		}
		r.ClosePath()
	})
}

// MeasureText returns the pixel box occupied by s in the canvas font.
func (c *Context) MeasureText(s string) (w, h float64) {
	adv := font.MeasureString(c.face, s)
	m := c.face.Metrics()
	return float64(adv >> 6), float64((m.Ascent + m.Descent) >> 6)
}

// DrawText draws s with its top-left corner at (x, y).
func (c *Context) DrawText(s string, x, y float64, col color.Color) {
	m := c.face.Metrics()
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y*64) + m.Ascent,
		},
	}
	d.DrawString(s)
}
