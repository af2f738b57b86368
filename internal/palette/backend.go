// Package palette shows daemon actions in an external dmenu-style launcher.
package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the launcher closes without a selection.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single launcher row.
type Item struct {
	Label    string
	Action   string
	Icon     string
	IsHeader bool
	IsActive bool
}

// Backend shows items and returns the chosen one.
type Backend interface {
	Show(prompt string, items []Item, message string) (Item, error)
	Name() string
}

type kind int

const (
	kindRofi kind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

var backendOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// runner executes the launcher. Tests swap it out.
type runner func(name string, args []string, stdin string) (stdout string, exitCode int, err error)

func execRunner(name string, args []string, stdin string) (string, int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%s: %s", name, msg)
			}
			return string(out), exitErr.ExitCode(), err
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}

type launcher struct {
	command string
	kind    kind
	run     runner
}

// New returns the named backend. "" and "auto" pick the first launcher in PATH.
func New(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		for _, candidate := range backendOrder {
			if _, err := exec.LookPath(candidate); err == nil {
				return newLauncher(candidate, execRunner), nil
			}
		}
		return nil, fmt.Errorf("no launcher found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
	}
	for _, candidate := range backendOrder {
		if candidate == name {
			if _, err := exec.LookPath(name); err != nil {
				return nil, fmt.Errorf("launcher %q not found in PATH", name)
			}
			return newLauncher(name, execRunner), nil
		}
	}
	return nil, fmt.Errorf("unknown launcher %q (expected: auto, %s)", name, strings.Join(backendOrder, ", "))
}

func newLauncher(name string, run runner) *launcher {
	l := &launcher{command: name, run: run}
	switch name {
	case "rofi":
		l.kind = kindRofi
	case "fuzzel":
		l.kind = kindFuzzel
	case "wofi":
		l.kind = kindWofi
	default:
		l.kind = kindDmenu
	}
	return l
}

func (l *launcher) Name() string { return l.command }

// indexed launchers report the selected row number instead of its text.
func (l *launcher) indexed() bool { return l.kind == kindRofi || l.kind == kindFuzzel }

func (l *launcher) Show(prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	rows := make([]Item, len(items))
	copy(rows, items)
	if !l.indexed() {
		disambiguate(rows)
	}

	lines := make([]string, len(rows))
	for i, it := range rows {
		lines[i] = l.formatRow(it)
	}

	out, code, err := l.run(l.command, l.args(prompt, message, rows), strings.Join(lines, "\n"))
	selection := strings.TrimSpace(out)
	if selection == "" && (code == 1 || code == 130) {
		return Item{}, ErrCancelled
	}
	if err != nil {
		return Item{}, fmt.Errorf("%s failed: %w", l.command, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parse(selection, rows)
}

func (l *launcher) args(prompt, message string, rows []Item) []string {
	var args []string
	switch l.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active []string
		selected := -1
		for i, it := range rows {
			if it.IsHeader {
				continue
			}
			if selected < 0 {
				selected = i
			}
			if it.IsActive {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
		if selected >= 0 {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

func (l *launcher) formatRow(it Item) string {
	label := clean(it.Label)
	if l.kind != kindRofi {
		return label
	}
	label = html.EscapeString(label)
	var attrs []string
	if it.IsHeader {
		label = "<b>" + label + "</b>"
		attrs = append(attrs, "nonselectable", "true")
	}
	if it.Icon != "" {
		attrs = append(attrs, "icon", strings.NewReplacer("\x00", " ", "\x1f", " ").Replace(clean(it.Icon)))
	}
	if len(attrs) == 0 {
		return label
	}
	// rofi row properties: one NUL, then key/value pairs split by 0x1f.
	return label + "\x00" + strings.Join(attrs, "\x1f")
}

func (l *launcher) parse(selection string, rows []Item) (Item, error) {
	if l.indexed() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(rows) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, it := range rows {
		if clean(it.Label) == selection {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

// disambiguate suffixes repeated labels so text-matching launchers stay exact.
func disambiguate(rows []Item) {
	seen := make(map[string]int)
	for i := range rows {
		key := clean(rows[i].Label)
		if rows[i].IsHeader || key == "" {
			continue
		}
		if n := seen[key]; n > 0 {
			rows[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
		}
		seen[key]++
	}
}

func clean(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}
