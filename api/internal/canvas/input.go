package canvas

// Kind is a canonical pointer event kind. Every supported input device is
// reduced to these three before it reaches the surface.
type Kind int

const (
	PointerDown Kind = iota + 1
	PointerMove
	PointerUp
)

func (k Kind) String() string {
	switch k {
	case PointerDown:
		return "pointer-down"
	case PointerMove:
		return "pointer-move"
	case PointerUp:
		return "pointer-up"
	default:
		return "unknown"
	}
}

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// RawEvent is an input event as the page reports it, in client (viewport)
// coordinates. Besides device events the page logs "pen" (Size, Color) and
// "clear" so a drawing can be replayed from its event log.
type RawEvent struct {
	Type    string  `json:"type"`
	ClientX float32 `json:"x"`
	ClientY float32 `json:"y"`
	Touches []Point `json:"touches,omitempty"`
	Size    float32 `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
}

// PointerEvent is the canonical event, in surface coordinates.
type PointerEvent struct {
	Kind Kind
	At   Point
}

// Normalize maps mouse, touch and pointer events to a PointerEvent.
// origin is the surface's top-left corner in client coordinates. Touch
// events use their first touch point; a touch start or move without touch
// points, and any unknown type, is dropped.
func Normalize(raw RawEvent, origin Point) (PointerEvent, bool) {
	at := Point{X: raw.ClientX - origin.X, Y: raw.ClientY - origin.Y}

	switch raw.Type {
	case "mousedown", "pointerdown":
		return PointerEvent{Kind: PointerDown, At: at}, true
	case "mousemove", "pointermove":
		return PointerEvent{Kind: PointerMove, At: at}, true
	case "mouseup", "mouseout", "mouseleave", "pointerup", "pointercancel", "pointerleave", "touchend", "touchcancel":
		return PointerEvent{Kind: PointerUp, At: at}, true
	case "touchstart", "touchmove":
		if len(raw.Touches) == 0 {
			return PointerEvent{}, false
		}
		t := raw.Touches[0]
		ev := PointerEvent{Kind: PointerMove, At: Point{X: t.X - origin.X, Y: t.Y - origin.Y}}
		if raw.Type == "touchstart" {
			ev.Kind = PointerDown
		}
		return ev, true
	}
	return PointerEvent{}, false
}
