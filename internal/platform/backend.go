package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the overlapping region of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Overlaps reports whether r and o share any area.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Display describes a physical display and its usable work area.
// Name is the identity key within a session; ID is host ordering only.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
	Usable Rect
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	AppID  string
	Title  string
	Bounds Rect
}

// Surface is an application-owned visible region. Callers position it but
// never destroy it.
type Surface interface {
	Hide() error
	Show() error
	SetGeometry(bounds Rect) error
	Geometry() (Rect, error)
	Activate() error
}

// Shim groups the host platform calls that are invoked but not implemented
// by the layout core.
type Shim interface {
	ShowFullScreen(s Surface) error
	FadeDisplayOut()
	FadeDisplayIn()
}

// Enumerator lists the displays currently attached to the host. Ordering is
// host-defined and may differ between calls.
type Enumerator interface {
	Displays() ([]Display, error)
}

// Host is the display source consumed by the topology watcher.
type Host interface {
	Enumerator
	// OnDisplaysChanged registers fn for displays being added or removed.
	OnDisplaysChanged(fn func(ChangeKind)) (cancel func())
	// OnDisplayChanged registers fn for geometry and work-area changes of
	// the named display.
	OnDisplayChanged(name string, fn func(ChangeKind)) (cancel func())
}

// Backend abstracts the window-system operations the daemon needs.
type Backend interface {
	Host
	Shim
	Surface(id WindowID) Surface
	FindWindows(class, title string) ([]Window, error)
}

// Overlay is a surface owned by the caller that must be closed when no
// longer needed.
type Overlay interface {
	Surface
	Close() error
}
