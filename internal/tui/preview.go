package tui

import (
	"strings"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/platform"
	"github.com/1broseidon/screenrole/internal/roles"
)

// previewRow pairs a live display with the role the daemon assigned and the
// role the edited rule table would assign.
type previewRow struct {
	Name    string
	Live    string
	Pending string
	Bounds  platform.Rect
	Usable  platform.Rect
}

// Changed reports whether saving would move the display to another role.
func (r previewRow) Changed() bool {
	return r.Pending != "" && r.Live != r.Pending
}

// previewRoles resolves the live displays against cfg's rule table.
func previewRoles(cfg *config.Config, displays []display.DisplayStatus) ([]previewRow, error) {
	rows := make([]previewRow, 0, len(displays))
	for _, d := range displays {
		rows = append(rows, previewRow{Name: d.Name, Live: d.Role, Bounds: d.Bounds, Usable: d.Usable})
	}
	if cfg == nil {
		return rows, nil
	}

	rules, err := cfg.RoleRules()
	if err != nil {
		return rows, err
	}
	resolver, err := roles.NewResolver(rules)
	if err != nil {
		return rows, err
	}

	pds := make([]platform.Display, 0, len(displays))
	for i, d := range displays {
		pds = append(pds, platform.Display{ID: i, Name: d.Name, Bounds: d.Bounds, Usable: d.Usable})
	}
	m := resolver.Resolve(pds)
	for i := range rows {
		if role, ok := m.RoleOf(rows[i].Name); ok {
			rows[i].Pending = role.String()
		}
	}
	return rows, nil
}

// renderArrangement sketches the display arrangement scaled into a
// width x height character canvas, labelling each display with its pending
// role.
func renderArrangement(rows []previewRow, width, height int) []string {
	if len(rows) == 0 || width < 5 || height < 3 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	minX, minY := rows[0].Bounds.X, rows[0].Bounds.Y
	maxX, maxY := minX+rows[0].Bounds.Width, minY+rows[0].Bounds.Height
	for _, r := range rows[1:] {
		minX = min(minX, r.Bounds.X)
		minY = min(minY, r.Bounds.Y)
		maxX = max(maxX, r.Bounds.X+r.Bounds.Width)
		maxY = max(maxY, r.Bounds.Y+r.Bounds.Height)
	}
	spanW, spanH := maxX-minX, maxY-minY
	if spanW <= 0 || spanH <= 0 {
		return emptyCanvas(width, height)
	}

	for _, r := range rows {
		x1 := (r.Bounds.X - minX) * (width - 1) / spanW
		y1 := (r.Bounds.Y - minY) * (height - 1) / spanH
		x2 := (r.Bounds.X - minX + r.Bounds.Width) * (width - 1) / spanW
		y2 := (r.Bounds.Y - minY + r.Bounds.Height) * (height - 1) / spanH
		role := r.Pending
		if role == "" {
			role = r.Live
		}
		drawBox(canvas, x1, y1, x2, y2, r.Name, role)
	}

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawBox(canvas [][]rune, x1, y1, x2, y2 int, labels ...string) {
	if x2-x1 < 2 || y2-y1 < 2 {
		return
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	inner := x2 - x1 - 1
	top := (y1+y2)/2 - len(labels)/2
	for i, label := range labels {
		y := top + i
		if y <= y1 || y >= y2 {
			continue
		}
		runes := []rune(label)
		if len(runes) > inner {
			runes = runes[:inner]
		}
		start := x1 + 1 + (inner-len(runes))/2
		for j, r := range runes {
			canvas[y][start+j] = r
		}
	}
}

func emptyCanvas(width, height int) []string {
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", max(width, 0))
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
