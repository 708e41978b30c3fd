package canvas

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r < 0x1000 && g < 0x1000 && b < 0x1000
}

func TestStrokeDrawsBetweenPoints(t *testing.T) {
	s := New(100, 50)
	s.Handle(PointerEvent{Kind: PointerDown, At: Point{10, 25}})
	s.Handle(PointerEvent{Kind: PointerMove, At: Point{90, 25}})
	s.Handle(PointerEvent{Kind: PointerUp})

	img := s.Image()
	if !isDark(img.At(50, 25)) {
		t.Fatalf("expected ink on the stroke, got %v", img.At(50, 25))
	}
	if !isWhite(img.At(50, 5)) {
		t.Fatalf("expected white away from the stroke, got %v", img.At(50, 5))
	}
	if s.Drawing() {
		t.Fatalf("stroke still in progress after pointer-up")
	}
}

func TestMoveWithoutDownIsIgnored(t *testing.T) {
	s := New(40, 40)
	s.Handle(PointerEvent{Kind: PointerMove, At: Point{5, 20}})
	s.Handle(PointerEvent{Kind: PointerMove, At: Point{35, 20}})
	if !isWhite(s.Image().At(20, 20)) {
		t.Fatalf("move without down must not draw")
	}
}

func TestClearRepaintsWhite(t *testing.T) {
	s := New(40, 40)
	s.Handle(PointerEvent{Kind: PointerDown, At: Point{5, 20}})
	s.Handle(PointerEvent{Kind: PointerMove, At: Point{35, 20}})
	s.Clear()
	if !isWhite(s.Image().At(20, 20)) {
		t.Fatalf("Clear() left ink behind")
	}
	if s.Drawing() {
		t.Fatalf("Clear() must end the stroke")
	}
}

func TestSetPen(t *testing.T) {
	s := New(60, 60)
	if err := s.SetPen(10, "#f00"); err != nil {
		t.Fatalf("SetPen() error = %v", err)
	}
	s.Handle(PointerEvent{Kind: PointerDown, At: Point{10, 30}})
	s.Handle(PointerEvent{Kind: PointerMove, At: Point{50, 30}})
	r, g, b, _ := s.Image().At(30, 34).RGBA()
	if r < 0xf000 || g > 0x1000 || b > 0x1000 {
		t.Fatalf("expected red ink 4px off-center with a 10px pen, got %v", s.Image().At(30, 34))
	}
	if err := s.SetPen(0, "nope"); err == nil {
		t.Fatalf("expected bad color error")
	}
}

func TestCaptureIsPNG(t *testing.T) {
	s := New(20, 10)
	img, err := s.Capture()
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("mime = %q", img.MIME)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestNormalize(t *testing.T) {
	origin := Point{X: 100, Y: 50}
	cases := []struct {
		raw  RawEvent
		kind Kind
		at   Point
		ok   bool
	}{
		{RawEvent{Type: "mousedown", ClientX: 110, ClientY: 60}, PointerDown, Point{10, 10}, true},
		{RawEvent{Type: "mousemove", ClientX: 120, ClientY: 70}, PointerMove, Point{20, 20}, true},
		{RawEvent{Type: "mouseout"}, PointerUp, Point{-100, -50}, true},
		{RawEvent{Type: "touchstart", Touches: []Point{{130, 80}, {0, 0}}}, PointerDown, Point{30, 30}, true},
		{RawEvent{Type: "touchmove", Touches: []Point{{140, 90}}}, PointerMove, Point{40, 40}, true},
		{RawEvent{Type: "touchend"}, PointerUp, Point{-100, -50}, true},
		{RawEvent{Type: "touchmove"}, 0, Point{}, false},
		{RawEvent{Type: "wheel"}, 0, Point{}, false},
	}
	for _, tc := range cases {
		ev, ok := Normalize(tc.raw, origin)
		if ok != tc.ok {
			t.Fatalf("%s: ok = %v", tc.raw.Type, ok)
		}
		if !ok {
			continue
		}
		if ev.Kind != tc.kind || ev.At != tc.at {
			t.Fatalf("%s: got %v at %v, want %v at %v", tc.raw.Type, ev.Kind, ev.At, tc.kind, tc.at)
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1a2B3c")
	if err != nil {
		t.Fatal(err)
	}
	if c != (color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}) {
		t.Fatalf("color = %v", c)
	}
}
