package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a rectangle in root window coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (g Geometry) empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

func (g Geometry) intersect(o Geometry) Geometry {
	x1 := max(g.X, o.X)
	y1 := max(g.Y, o.Y)
	x2 := min(g.X+g.Width, o.X+o.Width)
	y2 := min(g.Y+g.Height, o.Y+o.Height)
	if x2 <= x1 || y2 <= y1 {
		return Geometry{}
	}
	return Geometry{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Monitor represents a physical display. Usable excludes dock struts and
// the EWMH work area.
type Monitor struct {
	ID   int
	Name string
	Geometry
	Usable Geometry
}

// GetMonitors retrieves all active monitors. RandR CRTCs are preferred,
// Xinerama screens are used when RandR reports nothing, and the root window
// is reported as a single monitor as a last resort.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	var monitors []Monitor
	var enumErr error

	if c.hasRandr {
		monitors, enumErr = c.randrMonitors()
	}
	if len(monitors) == 0 && c.hasXinerama {
		if xm, err := c.xineramaMonitors(); err == nil {
			monitors = xm
		} else if enumErr == nil {
			enumErr = err
		}
	}
	if len(monitors) == 0 {
		root, err := xwindow.RawGeometry(c.XUtil, xproto.Drawable(c.Root))
		if err != nil || root.Width() == 0 || root.Height() == 0 {
			if enumErr != nil {
				return nil, enumErr
			}
			return nil, fmt.Errorf("no monitors found")
		}
		monitors = []Monitor{{
			ID:   0,
			Name: "root",
			Geometry: Geometry{
				X:      root.X(),
				Y:      root.Y(),
				Width:  root.Width(),
				Height: root.Height(),
			},
		}}
	}

	c.applyUsable(monitors)
	return monitors, nil
}

func (c *Connection) randrMonitors() ([]Monitor, error) {
	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		// Cloned outputs share a CRTC; the first output names it.
		name := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			name = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			ID:   i,
			Name: name,
			Geometry: Geometry{
				X:      int(crtcInfo.X),
				Y:      int(crtcInfo.Y),
				Width:  int(crtcInfo.Width),
				Height: int(crtcInfo.Height),
			},
		})
	}

	return monitors, nil
}

func (c *Connection) xineramaMonitors() ([]Monitor, error) {
	reply, err := xinerama.QueryScreens(c.XUtil.Conn()).Reply()
	if err != nil {
		return nil, fmt.Errorf("xinerama query failed: %w", err)
	}

	monitors := make([]Monitor, 0, len(reply.ScreenInfo))
	for i, info := range reply.ScreenInfo {
		if info.Width == 0 || info.Height == 0 {
			continue
		}
		monitors = append(monitors, Monitor{
			ID:   i,
			Name: fmt.Sprintf("XINERAMA-%d", i),
			Geometry: Geometry{
				X:      int(info.XOrg),
				Y:      int(info.YOrg),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
		})
	}
	return monitors, nil
}
