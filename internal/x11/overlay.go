package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Overlay colors
const (
	ColorOverlay     = 0x000000
	ColorButton      = 0x1f2933
	ColorButtonText  = 0xf5f7fa
	ColorLabelText   = 0x9aa5b1
	overlayCharWidth = 7
	overlayLineH     = 16
	buttonPaddingX   = 24
	buttonPaddingY   = 14
	buttonMinWidth   = 160
	labelGap         = 18
)

// OverlayOptions configures a blackout overlay window.
type OverlayOptions struct {
	Bounds Geometry
	// Dismissable overlays draw the logo button and the return label and
	// report pointer and key presses through OnActivity.
	Dismissable bool
	Logo        string
	Label       string
	OnActivity  func()
	// Dispatch runs event work on the goroutine that owns the overlay.
	// X event callbacks fire on the xevent loop goroutine, so repaints and
	// activity are handed to Dispatch instead of touching the overlay
	// there. Nil runs them inline.
	Dispatch func(func())
}

// Overlay is an override-redirect window painted black over one monitor.
type Overlay struct {
	conn   *Connection
	win    xproto.Window
	gc     xproto.Gcontext
	font   xproto.Font
	opts   OverlayOptions
	bounds Geometry
	mapped bool
	closed bool
}

// overlayPlacement is where the dismiss affordance is drawn, relative to
// the overlay window.
type overlayPlacement struct {
	button Geometry
	logoX  int
	logoY  int
	labelX int
	labelY int
}

// NewOverlay creates an unmapped overlay window covering opts.Bounds.
func (c *Connection) NewOverlay(opts OverlayOptions) (*Overlay, error) {
	eventMask := uint32(xproto.EventMaskExposure)
	if opts.Dismissable {
		eventMask |= xproto.EventMaskButtonPress | xproto.EventMaskKeyPress
	}

	win, err := c.createOverrideRedirectWindow(opts.Bounds, eventMask)
	if err != nil {
		return nil, fmt.Errorf("create overlay window: %w", err)
	}

	o := &Overlay{
		conn:   c,
		win:    win,
		opts:   opts,
		bounds: opts.Bounds,
	}

	if opts.Dismissable {
		// Text is optional; an overlay without a font still dismisses.
		_ = o.ensureText()

		xevent.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
			o.onInput()
		}).Connect(c.XUtil, win)
		xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
			o.onInput()
		}).Connect(c.XUtil, win)
	}

	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		o.onExpose(int(ev.Count))
	}).Connect(c.XUtil, win)

	return o, nil
}

func (o *Overlay) post(fn func()) {
	if o.opts.Dispatch == nil {
		fn()
		return
	}
	o.opts.Dispatch(fn)
}

// onInput reports a pointer or key press. The closed check runs on the
// owning goroutine, after any Close queued before it.
func (o *Overlay) onInput() {
	o.post(func() {
		if o.closed || o.opts.OnActivity == nil {
			return
		}
		o.opts.OnActivity()
	})
}

// onExpose repaints once the last expose event of a series arrives.
func (o *Overlay) onExpose(count int) {
	if count != 0 {
		return
	}
	o.post(o.draw)
}

// Window returns the X window ID of the overlay.
func (o *Overlay) Window() xproto.Window {
	return o.win
}

// Bounds returns the overlay's current geometry.
func (o *Overlay) Bounds() Geometry {
	return o.bounds
}

// SetBounds moves and resizes the overlay.
func (o *Overlay) SetBounds(g Geometry) error {
	if o.closed {
		return fmt.Errorf("overlay closed")
	}
	o.bounds = g
	o.configure(false)
	return nil
}

// Show maps the overlay above every other window.
func (o *Overlay) Show() error {
	if o.closed {
		return fmt.Errorf("overlay closed")
	}
	o.configure(true)
	if err := xproto.MapWindowChecked(o.conn.XUtil.Conn(), o.win).Check(); err != nil {
		return err
	}
	o.mapped = true
	o.draw()
	return nil
}

// FullScreen resets the overlay to its monitor bounds and shows it.
func (o *Overlay) FullScreen() error {
	o.bounds = o.opts.Bounds
	return o.Show()
}

// Hide unmaps the overlay.
func (o *Overlay) Hide() error {
	if o.closed || !o.mapped {
		return nil
	}
	o.mapped = false
	return xproto.UnmapWindowChecked(o.conn.XUtil.Conn(), o.win).Check()
}

// Focus gives the overlay keyboard input so key presses reach it.
func (o *Overlay) Focus() error {
	if o.closed {
		return fmt.Errorf("overlay closed")
	}
	return xproto.SetInputFocusChecked(o.conn.XUtil.Conn(), xproto.InputFocusPointerRoot,
		o.win, xproto.TimeCurrentTime).Check()
}

// Close detaches callbacks and destroys the window. Safe to call twice.
func (o *Overlay) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true

	xu := o.conn.XUtil
	xevent.Detach(xu, o.win)
	if o.gc != 0 {
		xproto.FreeGC(xu.Conn(), o.gc)
	}
	if o.font != 0 {
		xproto.CloseFont(xu.Conn(), o.font)
	}
	return xproto.DestroyWindowChecked(xu.Conn(), o.win).Check()
}

func (c *Connection) createOverrideRedirectWindow(g Geometry, eventMask uint32) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	width, height := max(g.Width, 1), max(g.Height, 1)
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(g.X), int16(g.Y),
		uint16(width), uint16(height),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		// Value list order follows the mask bit order.
		[]uint32{ColorOverlay, 1, eventMask},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

func (o *Overlay) configure(raise bool) {
	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{
		uint32(o.bounds.X),
		uint32(o.bounds.Y),
		uint32(max(o.bounds.Width, 1)),
		uint32(max(o.bounds.Height, 1)),
	}
	if raise {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, xproto.StackModeAbove)
	}
	xproto.ConfigureWindow(o.conn.XUtil.Conn(), o.win, mask, values)
}

func (o *Overlay) ensureText() error {
	conn := o.conn.XUtil.Conn()

	font, err := xproto.NewFontId(conn)
	if err != nil {
		return err
	}
	opened := false
	for _, name := range []string{"9x15bold", "9x15", "fixed"} {
		if xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check() == nil {
			opened = true
			break
		}
	}
	if !opened {
		return fmt.Errorf("no core font available")
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.CloseFont(conn, font)
		return err
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(o.win),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{ColorButtonText, ColorButton, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.CloseFont(conn, font)
		return err
	}

	o.font = font
	o.gc = gc
	return nil
}

func (o *Overlay) draw() {
	if o.closed || !o.mapped {
		return
	}
	conn := o.conn.XUtil.Conn()
	xproto.ClearArea(conn, false, o.win, 0, 0, 0, 0)

	if !o.opts.Dismissable || o.gc == 0 {
		return
	}

	p := placeAffordance(o.bounds.Width, o.bounds.Height, o.opts.Logo, o.opts.Label)

	xproto.ChangeGC(conn, o.gc, xproto.GcForeground, []uint32{ColorButton})
	xproto.PolyFillRectangle(conn, xproto.Drawable(o.win), o.gc, []xproto.Rectangle{{
		X:      int16(p.button.X),
		Y:      int16(p.button.Y),
		Width:  uint16(p.button.Width),
		Height: uint16(p.button.Height),
	}})

	if logo := clipText(o.opts.Logo); logo != "" {
		xproto.ChangeGC(conn, o.gc, xproto.GcForeground|xproto.GcBackground, []uint32{ColorButtonText, ColorButton})
		xproto.ImageText8(conn, byte(len(logo)), xproto.Drawable(o.win), o.gc, int16(p.logoX), int16(p.logoY), logo)
	}
	if label := clipText(o.opts.Label); label != "" {
		xproto.ChangeGC(conn, o.gc, xproto.GcForeground|xproto.GcBackground, []uint32{ColorLabelText, ColorOverlay})
		xproto.ImageText8(conn, byte(len(label)), xproto.Drawable(o.win), o.gc, int16(p.labelX), int16(p.labelY), label)
	}
}

// placeAffordance centres the logo button in a width x height window and
// puts the label underneath it.
func placeAffordance(width, height int, logo, label string) overlayPlacement {
	logo, label = clipText(logo), clipText(label)

	bw := max(len(logo)*overlayCharWidth+2*buttonPaddingX, buttonMinWidth)
	bh := overlayLineH + 2*buttonPaddingY
	if bw > width {
		bw = max(width, 1)
	}

	total := bh + labelGap + overlayLineH
	bx := (width - bw) / 2
	by := max((height-total)/2, 0)

	p := overlayPlacement{
		button: Geometry{X: bx, Y: by, Width: bw, Height: bh},
		logoX:  bx + (bw-len(logo)*overlayCharWidth)/2,
		logoY:  by + buttonPaddingY + overlayLineH - 4,
		labelX: max((width-len(label)*overlayCharWidth)/2, 0),
		labelY: by + bh + labelGap + overlayLineH - 4,
	}
	return p
}

// clipText limits text to what ImageText8 accepts.
func clipText(s string) string {
	if len(s) > 255 {
		return s[:255]
	}
	return s
}
