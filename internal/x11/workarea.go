package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

// applyUsable fills Usable for every monitor. Dock struts are preferred
// because _NET_WORKAREA is a single rectangle spanning all monitors.
func (c *Connection) applyUsable(monitors []Monitor) {
	for i := range monitors {
		monitors[i].Usable = monitors[i].Geometry
	}

	if struts, rootW, rootH, ok := c.dockStrutPartials(); ok && len(struts) > 0 {
		for i := range monitors {
			monitors[i].Usable = usableWithStruts(monitors[i].Geometry, rootW, rootH, struts)
		}
		return
	}

	wa, ok := c.currentWorkarea()
	if !ok {
		return
	}
	for i := range monitors {
		if isect := monitors[i].Geometry.intersect(wa); !isect.empty() {
			monitors[i].Usable = isect
		}
	}
}

func (c *Connection) currentWorkarea() (Geometry, bool) {
	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return Geometry{}, false
	}
	idx := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(workArea) {
		idx = int(current)
	}
	wa := workArea[idx]
	return Geometry{X: wa.X, Y: wa.Y, Width: int(wa.Width), Height: int(wa.Height)}, true
}

func (c *Connection) dockStrutPartials() ([]ewmh.WmStrutPartial, int, int, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, 0, 0, false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, 0, 0, false
	}

	var out []ewmh.WmStrutPartial
	for _, windowID := range clients {
		if !c.isDock(windowID) {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			out = append(out, *sp)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			out = append(out, ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootHeight - 1),
				RightEndY:  uint(rootHeight - 1),
				TopEndX:    uint(rootWidth - 1),
				BottomEndX: uint(rootWidth - 1),
			})
		}
	}
	return out, rootWidth, rootHeight, true
}

func (c *Connection) isDock(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// usableWithStruts shrinks mon by the struts that overlap it.
func usableWithStruts(mon Geometry, rootWidth, rootHeight int, struts []ewmh.WmStrutPartial) Geometry {
	var acc dockStruts
	for i := range struts {
		updateStrutsForMonitor(mon, rootWidth, rootHeight, &struts[i], &acc)
	}

	out := mon
	out.X += acc.left
	out.Y += acc.top
	out.Width -= acc.left + acc.right
	out.Height -= acc.top + acc.bottom
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}

func updateStrutsForMonitor(mon Geometry, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *dockStruts) {
	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		band := Geometry{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) + 1 - int(sp.TopStartX), Height: int(sp.Top)}
		if isect := mon.intersect(band); !isect.empty() {
			acc.top = max(acc.top, isect.Height)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		band := Geometry{X: int(sp.BottomStartX), Y: rootHeight - int(sp.Bottom), Width: int(sp.BottomEndX) + 1 - int(sp.BottomStartX), Height: int(sp.Bottom)}
		if isect := mon.intersect(band); !isect.empty() {
			acc.bottom = max(acc.bottom, isect.Height)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		band := Geometry{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) + 1 - int(sp.LeftStartY)}
		if isect := mon.intersect(band); !isect.empty() {
			acc.left = max(acc.left, isect.Width)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		band := Geometry{X: rootWidth - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) + 1 - int(sp.RightStartY)}
		if isect := mon.intersect(band); !isect.empty() {
			acc.right = max(acc.right, isect.Width)
		}
	}
}
