package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/config"
)

var errNoChanges = errors.New("no changes to save")

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // diff shown, awaiting confirm
	saveResult            // outcome shown
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
	diffGap
)

type diffLine struct {
	kind diffKind
	text string
}

// SaveOverlay shows the pending YAML changes and writes them on confirm.
type SaveOverlay struct {
	phase     savePhase
	diffLines []diffLine
	err       error
	reloadErr error
	reloaded  bool
	scroll    int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show computes the diff and opens the preview.
func (s *SaveOverlay) Show(original, current *config.Config) {
	*s = SaveOverlay{}
	lines, err := configDiff(original, current)
	switch {
	case err != nil:
		s.phase, s.err = saveResult, err
	case len(lines) == 0:
		s.phase, s.err = saveResult, errNoChanges
	default:
		s.phase, s.diffLines = savePreview, lines
	}
}

// Update handles a key while the overlay is active. The second result is
// true when the config was written.
func (s SaveOverlay) Update(km tea.KeyMsg, cfg *config.Config, path string, client DaemonClient, connected bool) (SaveOverlay, bool) {
	switch s.phase {
	case savePreview:
		switch km.String() {
		case "esc":
			s.phase = saveHidden
		case "enter", "y":
			s.phase = saveResult
			if s.err = cfg.SaveTo(path); s.err != nil {
				return s, false
			}
			if connected && client != nil {
				s.reloadErr = client.Reload()
				s.reloaded = s.reloadErr == nil
			}
			return s, true
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			if s.scroll < len(s.diffLines)-1 {
				s.scroll++
			}
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s, false
}

// View renders the overlay centered in the content area.
func (s SaveOverlay) View(width, height int) string {
	switch s.phase {
	case savePreview:
		return s.viewPreview(width, height)
	case saveResult:
		return s.viewResult(width, height)
	}
	return ""
}

func overlayBox(content string, boxW, areaW, areaH int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(areaW, areaH, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(areaW, areaH int) string {
	boxW := min(max(areaW-8, 30), 80)
	innerW := max(boxW-8, 10)
	visible := max(areaH-10, 3)

	off := min(s.scroll, max(len(s.diffLines)-visible, 0))
	end := min(off+visible, len(s.diffLines))

	addStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ctxStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	var lines []string
	for _, dl := range s.diffLines[off:end] {
		t := dl.text
		if len(t) > innerW {
			t = t[:innerW]
		}
		switch dl.kind {
		case diffAdded:
			lines = append(lines, addStyle.Render("+ "+t))
		case diffRemoved:
			lines = append(lines, rmStyle.Render("- "+t))
		case diffGap:
			lines = append(lines, dimStyle.Render("  ..."))
		default:
			lines = append(lines, ctxStyle.Render("  "+t))
		}
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save config: pending changes")
	footer := dimStyle.Render("enter: save  esc: cancel  j/k: scroll")
	return overlayBox(title+"\n\n"+strings.Join(lines, "\n")+"\n\n"+footer, boxW, areaW, areaH)
}

func (s SaveOverlay) viewResult(areaW, areaH int) string {
	var msg string
	switch {
	case s.err != nil:
		msg = errStyle.Render("Error: " + s.err.Error())
	default:
		msg = okStyle.Render("Config saved")
		if s.reloaded {
			msg += "\n" + okStyle.Render("Daemon reloaded")
		} else if s.reloadErr != nil {
			msg += "\n" + errStyle.Render("Reload failed: "+s.reloadErr.Error())
		}
	}
	footer := dimStyle.Render("press any key to dismiss")
	return overlayBox(msg+"\n\n"+footer, min(max(areaW-8, 30), 60), areaW, areaH)
}

// configDiff renders both configs as YAML and returns a line diff with two
// lines of context around each change.
func configDiff(original, current *config.Config) ([]diffLine, error) {
	if original == nil || current == nil {
		return nil, nil
	}
	a, err := original.Marshal()
	if err != nil {
		return nil, err
	}
	b, err := current.Marshal()
	if err != nil {
		return nil, err
	}
	return withContext(lineDiff(splitLines(a), splitLines(b)), 2), nil
}

func splitLines(data []byte) []string {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// lineDiff is a longest-common-subsequence diff. The config is small, so the
// quadratic table is fine.
func lineDiff(a, b []string) []diffLine {
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			out = append(out, diffLine{diffContext, a[i]})
			i++
			j++
		case j == len(b) || (i < len(a) && lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, diffLine{diffRemoved, a[i]})
			i++
		default:
			out = append(out, diffLine{diffAdded, b[j]})
			j++
		}
	}
	return out
}

// withContext keeps changed lines plus n lines around them and collapses the
// rest into gap markers. It returns nil when nothing changed.
func withContext(lines []diffLine, n int) []diffLine {
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		changed = true
		for k := max(i-n, 0); k <= min(i+n, len(lines)-1); k++ {
			keep[k] = true
		}
	}
	if !changed {
		return nil
	}

	var out []diffLine
	for i, l := range lines {
		if !keep[i] {
			continue
		}
		if i > 0 && !keep[i-1] {
			out = append(out, diffLine{kind: diffGap})
		}
		out = append(out, l)
	}
	return out
}
