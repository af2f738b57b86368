// Package platformtest provides in-memory platform fakes for tests.
package platformtest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/screenrole/internal/platform"
)

// Display builds a display whose usable area equals its bounds.
func Display(name string, x, y, width, height int) platform.Display {
	r := platform.Rect{X: x, Y: y, Width: width, Height: height}
	return platform.Display{Name: name, Bounds: r, Usable: r}
}

// Surface records every call made on it.
type Surface struct {
	Name    string
	Bounds  platform.Rect
	Visible bool
	Full    bool
	Active  bool
	Calls   []string
	// Errs makes the named operation ("hide", "show", "geometry",
	// "fullscreen", "activate") fail.
	Errs map[string]error
}

// NewSurface returns a hidden surface.
func NewSurface(name string) *Surface {
	return &Surface{Name: name}
}

func (s *Surface) record(op string) error {
	s.Calls = append(s.Calls, op)
	return s.Errs[op]
}

func (s *Surface) Hide() error {
	if err := s.record("hide"); err != nil {
		return err
	}
	s.Visible, s.Full = false, false
	return nil
}

func (s *Surface) Show() error {
	if err := s.record("show"); err != nil {
		return err
	}
	s.Visible, s.Full = true, false
	return nil
}

func (s *Surface) FullScreen() error {
	if err := s.record("fullscreen"); err != nil {
		return err
	}
	s.Visible, s.Full = true, true
	return nil
}

func (s *Surface) SetGeometry(r platform.Rect) error {
	if err := s.record("geometry"); err != nil {
		return err
	}
	s.Bounds = r
	return nil
}

func (s *Surface) Geometry() (platform.Rect, error) {
	return s.Bounds, nil
}

func (s *Surface) Activate() error {
	if err := s.record("activate"); err != nil {
		return err
	}
	s.Active = true
	return nil
}

// Reset clears the call log.
func (s *Surface) Reset() {
	s.Calls = nil
}

// Shim records fades and full-screen requests.
type Shim struct {
	FadeOuts int
	FadeIns  int
	Calls    []string
}

func (s *Shim) ShowFullScreen(surface platform.Surface) error {
	fs, ok := surface.(interface{ FullScreen() error })
	if !ok {
		return errors.New("surface cannot go full-screen")
	}
	switch v := surface.(type) {
	case *Surface:
		s.Calls = append(s.Calls, "fullscreen:"+v.Name)
	case *Overlay:
		s.Calls = append(s.Calls, "fullscreen:"+v.Name)
	}
	return fs.FullScreen()
}

func (s *Shim) FadeDisplayOut() {
	s.FadeOuts++
	s.Calls = append(s.Calls, "fade-out")
}

func (s *Shim) FadeDisplayIn() {
	s.FadeIns++
	s.Calls = append(s.Calls, "fade-in")
}

// Host is a display source whose topology is changed by the test.
type Host struct {
	displays []platform.Display
	tracker  *platform.Tracker

	// Enumerations counts Displays calls.
	Enumerations int
	// OnEnumerate runs inside every Displays call, before the snapshot is
	// taken. Tests use it to inject events mid-resolution.
	OnEnumerate func()
	Err         error
}

// NewHost returns a host reporting displays.
func NewHost(displays ...platform.Display) *Host {
	h := &Host{displays: displays}
	h.tracker = platform.NewTracker(platform.EnumeratorFunc(func() ([]platform.Display, error) {
		if h.Err != nil {
			return nil, h.Err
		}
		return append([]platform.Display(nil), h.displays...), nil
	}), nil)
	return h
}

func (h *Host) Displays() ([]platform.Display, error) {
	h.Enumerations++
	if h.OnEnumerate != nil {
		h.OnEnumerate()
	}
	return h.tracker.Displays()
}

func (h *Host) OnDisplaysChanged(fn func(platform.ChangeKind)) func() {
	return h.tracker.OnDisplaysChanged(fn)
}

func (h *Host) OnDisplayChanged(name string, fn func(platform.ChangeKind)) func() {
	return h.tracker.OnDisplayChanged(name, fn)
}

// Listeners returns the number of registered listeners.
func (h *Host) Listeners() int {
	return h.tracker.Listeners()
}

// SetDisplays replaces the topology and notifies listeners of the difference.
func (h *Host) SetDisplays(displays ...platform.Display) error {
	h.displays = displays
	return h.tracker.Refresh()
}

// Overlay is a fake blackout overlay.
type Overlay struct {
	*Surface
	Dismissable bool
	OnActivity  func()
	Closed      int
}

func (o *Overlay) Close() error {
	o.Closed++
	o.Calls = append(o.Calls, "close")
	return nil
}

// Trigger simulates user activity on the overlay.
func (o *Overlay) Trigger() {
	if o.OnActivity != nil {
		o.OnActivity()
	}
}

// OverlayFactory creates fake overlays.
type OverlayFactory struct {
	Created []*Overlay
	// FailAt makes the n-th creation (1-based) fail; zero never fails.
	FailAt int
	// Errs is copied into every created overlay's Surface.Errs.
	Errs map[string]error
}

func (f *OverlayFactory) NewOverlay(bounds platform.Rect, dismissable bool, onActivity func()) (platform.Overlay, error) {
	if f.FailAt > 0 && len(f.Created)+1 == f.FailAt {
		return nil, fmt.Errorf("overlay %d: create failed", f.FailAt)
	}
	o := &Overlay{
		Surface:     &Surface{Name: fmt.Sprintf("overlay-%d", len(f.Created)+1), Bounds: bounds, Errs: f.Errs},
		Dismissable: dismissable,
		OnActivity:  onActivity,
	}
	f.Created = append(f.Created, o)
	return o, nil
}

// Open returns the overlays that have not been closed.
func (f *OverlayFactory) Open() []*Overlay {
	var open []*Overlay
	for _, o := range f.Created {
		if o.Closed == 0 {
			open = append(open, o)
		}
	}
	return open
}

// Freezer records interactive content freeze requests.
type Freezer struct {
	Frozen bool
	Calls  []bool
}

func (f *Freezer) FreezeInteractiveContent(frozen bool) {
	f.Frozen = frozen
	f.Calls = append(f.Calls, frozen)
}

var (
	_ platform.Surface = (*Surface)(nil)
	_ platform.Shim    = (*Shim)(nil)
	_ platform.Host    = (*Host)(nil)
	_ platform.Overlay = (*Overlay)(nil)
)

// Windows is a fake client window list. It hands out one recording Surface
// per window ID.
type Windows struct {
	mu       sync.Mutex
	list     []platform.Window
	surfaces map[platform.WindowID]*Surface
	Err      error
	Lookups  int
}

// NewWindows creates a window list.
func NewWindows(windows ...platform.Window) *Windows {
	w := &Windows{surfaces: make(map[platform.WindowID]*Surface)}
	w.Set(windows...)
	return w
}

// Set replaces the window list.
func (w *Windows) Set(windows ...platform.Window) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append([]platform.Window(nil), windows...)
	sort.Slice(w.list, func(i, j int) bool { return w.list[i].ID < w.list[j].ID })
}

// Surface returns the recording surface for id.
func (w *Windows) Surface(id platform.WindowID) platform.Surface {
	return w.SurfaceFor(id)
}

// SurfaceFor is Surface with the concrete type.
func (w *Windows) SurfaceFor(id platform.WindowID) *Surface {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.surfaces[id]
	if !ok {
		s = NewSurface(fmt.Sprintf("0x%x", uint32(id)))
		w.surfaces[id] = s
	}
	return s
}

// FindWindows matches class case-insensitively and title as a substring.
func (w *Windows) FindWindows(class, title string) ([]platform.Window, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Lookups++
	if w.Err != nil {
		return nil, w.Err
	}
	var out []platform.Window
	for _, win := range w.list {
		if class != "" && !strings.EqualFold(win.AppID, class) {
			continue
		}
		if title != "" && !strings.Contains(win.Title, title) {
			continue
		}
		out = append(out, win)
	}
	return out, nil
}
