package x11

import (
	"strings"
	"testing"
)

func TestPlaceAffordanceCentresButton(t *testing.T) {
	p := placeAffordance(1920, 1080, "screenrole", "Click to return")

	if p.button.Width < buttonMinWidth {
		t.Fatalf("button width = %d, want >= %d", p.button.Width, buttonMinWidth)
	}
	left := p.button.X
	right := 1920 - (p.button.X + p.button.Width)
	if diff := left - right; diff < -1 || diff > 1 {
		t.Fatalf("button not centred horizontally: left=%d right=%d", left, right)
	}
	if p.labelY <= p.button.Y+p.button.Height {
		t.Fatalf("label baseline %d should sit below the button (bottom %d)", p.labelY, p.button.Y+p.button.Height)
	}
	if p.logoX < p.button.X || p.logoX > p.button.X+p.button.Width {
		t.Fatalf("logo x %d outside button %+v", p.logoX, p.button)
	}
}

func TestPlaceAffordanceFitsNarrowWindow(t *testing.T) {
	p := placeAffordance(100, 50, strings.Repeat("x", 40), "label")

	if p.button.Width > 100 {
		t.Fatalf("button width %d exceeds window width", p.button.Width)
	}
	if p.button.X < 0 || p.button.Y < 0 {
		t.Fatalf("button escaped window: %+v", p.button)
	}
	if p.labelX < 0 {
		t.Fatalf("label x should clamp to 0, got %d", p.labelX)
	}
}

func TestClipText(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := clipText(long); len(got) != 255 {
		t.Fatalf("clipText length = %d, want 255", len(got))
	}
	if got := clipText("short"); got != "short" {
		t.Fatalf("clipText(short) = %q", got)
	}
}

func TestOverlayEventsRunOnDispatcher(t *testing.T) {
	var queue []func()
	activity := 0
	o := &Overlay{opts: OverlayOptions{
		Dismissable: true,
		OnActivity:  func() { activity++ },
		Dispatch:    func(fn func()) { queue = append(queue, fn) },
	}}

	o.onInput()
	o.onExpose(1)
	o.onExpose(0)
	if activity != 0 {
		t.Fatalf("activity ran on the event goroutine")
	}
	if len(queue) != 2 {
		t.Fatalf("queued %d callbacks, want 2 (input and final expose)", len(queue))
	}

	queue[0]()
	if activity != 1 {
		t.Fatalf("activity = %d after running queued input, want 1", activity)
	}

	// Unmapped overlays skip painting without touching the connection.
	queue[1]()
}

func TestOverlayInputAfterCloseIsDropped(t *testing.T) {
	var queue []func()
	activity := 0
	o := &Overlay{opts: OverlayOptions{
		Dismissable: true,
		OnActivity:  func() { activity++ },
		Dispatch:    func(fn func()) { queue = append(queue, fn) },
	}}

	o.onInput()
	o.onExpose(0)
	// Close ran on the owning goroutine before the queued events.
	o.closed = true
	o.mapped = true
	for _, fn := range queue {
		fn()
	}
	if activity != 0 {
		t.Fatalf("activity delivered after close")
	}
}

func TestOverlayWithoutDispatcherRunsInline(t *testing.T) {
	activity := 0
	o := &Overlay{opts: OverlayOptions{OnActivity: func() { activity++ }}}
	o.onInput()
	if activity != 1 {
		t.Fatalf("activity = %d, want 1", activity)
	}
}
