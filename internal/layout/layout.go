// Package layout positions managed surfaces on the displays of a role map.
package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/roles"
)

// Surfaces are the application surfaces placed by the engine. Every field
// may be nil; the engine never destroys them.
type Surfaces struct {
	Control  platform.Surface
	Display  platform.Surface
	Desktop  platform.Surface
	Previous []platform.Surface
}

// ForOffset returns the surface realizing Paged(offset), or nil.
func (s Surfaces) ForOffset(offset int) platform.Surface {
	if offset == 0 {
		return s.Display
	}
	if offset < 0 || offset > len(s.Previous) {
		return nil
	}
	return s.Previous[offset-1]
}

// Flags are the mode switches that influence placement.
type Flags struct {
	MultiScreen    bool
	ShowingDesktop bool
}

// FullScreenPaged reports whether paged surfaces are shown full-screen.
// Paged surfaces go full-screen only when multi-screen mode is on and more
// than one display is attached; otherwise they are shown windowed at the
// display geometry.
func FullScreenPaged(m roles.Map, f Flags) bool {
	return f.MultiScreen && m.ScreenCount() > 1
}

// Engine applies role maps to surfaces.
type Engine struct {
	shim   platform.Shim
	logger *slog.Logger
}

// NewEngine creates an engine that full-screens surfaces through shim.
func NewEngine(shim platform.Shim, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{shim: shim, logger: logger}
}

// WithLogger returns a copy of e that logs to logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	c := *e
	c.logger = logger
	return &c
}

// Apply places every surface according to m. A failing surface does not
// stop the pass; all failures are returned joined.
func (e *Engine) Apply(m roles.Map, s Surfaces, f Flags) error {
	var errs []error
	fullPaged := FullScreenPaged(m, f)
	primary := false

	for _, a := range m.Assignments() {
		d := a.Display
		switch a.Role.Kind {
		case roles.KindIgnored:
			continue

		case roles.KindPrimary:
			primary = true
			if s.Control != nil {
				errs = append(errs, e.wrap("control", d, e.Place(s.Control, d.Bounds, true)))
			}
			if s.Desktop != nil {
				errs = append(errs, e.wrap("desktop", d, e.Place(s.Desktop, d.Bounds, true)))
			}

		case roles.KindPaged:
			surface := s.ForOffset(a.Role.Offset)
			if surface == nil {
				continue
			}
			name := surfaceName(a.Role)
			if a.Role.Offset == 0 && f.ShowingDesktop {
				e.logger.Debug("presentation suppressed by desktop mode", "display", d.Name)
				errs = append(errs, e.wrap(name, d, surface.Hide()))
				continue
			}
			errs = append(errs, e.wrap(name, d, e.Place(surface, d.Bounds, fullPaged)))
		}
	}

	if primary && s.Control != nil {
		errs = append(errs, e.wrap("control", platform.Display{Name: "primary"}, s.Control.Activate()))
	}

	return errors.Join(errs...)
}

// Place hides surface, moves it to bounds and shows it again, full-screen
// when fullScreen is set.
func (e *Engine) Place(surface platform.Surface, bounds platform.Rect, fullScreen bool) error {
	if err := surface.Hide(); err != nil {
		return fmt.Errorf("hide: %w", err)
	}
	if err := surface.SetGeometry(bounds); err != nil {
		return fmt.Errorf("set geometry: %w", err)
	}
	if fullScreen {
		if err := e.shim.ShowFullScreen(surface); err != nil {
			return fmt.Errorf("show full-screen: %w", err)
		}
		return nil
	}
	if err := surface.Show(); err != nil {
		return fmt.Errorf("show: %w", err)
	}
	return nil
}

func (e *Engine) wrap(surface string, d platform.Display, err error) error {
	if err == nil {
		return nil
	}
	e.logger.Warn("surface placement failed", "surface", surface, "display", d.Name, "error", err)
	return fmt.Errorf("%s on %s: %w", surface, d.Name, err)
}

func surfaceName(r roles.Role) string {
	if r.IsPresentation() {
		return "display"
	}
	return fmt.Sprintf("previous[%d]", r.Offset-1)
}
