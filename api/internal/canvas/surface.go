// Package canvas is the drawing surface behind the "draw" tab: it replays
// pointer strokes onto a white raster and serializes it as PNG.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"

	"latexsnap/api/internal/recognize"
)

const (
	DefaultWidth    = 800
	DefaultHeight   = 400
	DefaultPenWidth = 3
	MaxPenWidth     = 50

	circleSegments = 24
)

type Surface struct {
	width, height int
	penWidth      float32
	penColor      color.RGBA

	img     *image.RGBA
	z       *vector.Rasterizer
	drawing bool
	last    Point
}

// New returns a blank white surface. Non-positive sizes fall back to the
// defaults.
func New(width, height int) *Surface {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	s := &Surface{
		width:    width,
		height:   height,
		penWidth: DefaultPenWidth,
		penColor: color.RGBA{A: 0xff},
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		z:        vector.NewRasterizer(width, height),
	}
	s.Clear()
	return s
}

func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Drawing reports whether a stroke is in progress.
func (s *Surface) Drawing() bool { return s.drawing }

// Clear paints the surface white and ends any stroke.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.White, image.Point{}, draw.Src)
	s.drawing = false
}

// SetPen sets stroke width (clamped to 1..MaxPenWidth) and a "#rgb" or
// "#rrggbb" color. An empty color keeps the current one.
func (s *Surface) SetPen(width float32, hex string) error {
	if width > 0 {
		s.penWidth = float32(math.Min(math.Max(float64(width), 1), MaxPenWidth))
	}
	if strings.TrimSpace(hex) == "" {
		return nil
	}
	c, err := ParseColor(hex)
	if err != nil {
		return err
	}
	s.penColor = c
	return nil
}

// Handle applies a canonical pointer event.
func (s *Surface) Handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		s.drawing = true
		s.last = ev.At
	case PointerMove:
		if !s.drawing {
			return
		}
		s.segment(s.last, ev.At)
		s.last = ev.At
	case PointerUp:
		s.drawing = false
	}
}

// segment strokes a line with round caps, like a 2D canvas path with
// lineCap=round.
func (s *Surface) segment(a, b Point) {
	r := s.penWidth / 2
	src := image.NewUniform(s.penColor)

	dx, dy := b.X-a.X, b.Y-a.Y
	if l := float32(math.Hypot(float64(dx), float64(dy))); l > 0 {
		nx, ny := -dy/l*r, dx/l*r
		s.z.Reset(s.width, s.height)
		s.z.MoveTo(a.X+nx, a.Y+ny)
		s.z.LineTo(b.X+nx, b.Y+ny)
		s.z.LineTo(b.X-nx, b.Y-ny)
		s.z.LineTo(a.X-nx, a.Y-ny)
		s.z.ClosePath()
		s.z.Draw(s.img, s.img.Bounds(), src, image.Point{})
	}
	s.dot(a, r, src)
	s.dot(b, r, src)
}

func (s *Surface) dot(c Point, r float32, src image.Image) {
	s.z.Reset(s.width, s.height)
	for i := 0; i <= circleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / circleSegments
		x := c.X + r*float32(math.Cos(theta))
		y := c.Y + r*float32(math.Sin(theta))
		if i == 0 {
			s.z.MoveTo(x, y)
			continue
		}
		s.z.LineTo(x, y)
	}
	s.z.ClosePath()
	s.z.Draw(s.img, s.img.Bounds(), src, image.Point{})
}

// Image returns the current raster. The caller must not modify it.
func (s *Surface) Image() image.Image { return s.img }

func (s *Surface) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("canvas: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Capture serializes the surface for submission.
func (s *Surface) Capture() (recognize.Image, error) {
	b, err := s.PNG()
	if err != nil {
		return recognize.Image{}, err
	}
	return recognize.Image{Data: b, MIME: "image/png", Name: "drawing.png"}, nil
}

func ParseColor(hex string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("canvas: bad color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("canvas: bad color %q", hex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
