package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/ipc"
	"github.com/1broseidon/screenrole/internal/platform"
)

type stubState struct {
	blacked bool
	desktop bool
	multi   bool
	surface string
}

type stubHandler struct {
	mu    sync.Mutex
	state stubState
}

func (h *stubHandler) do(fn func(*stubState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.state)
}

func (h *stubHandler) get() stubState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *stubHandler) Status() (display.Status, error) {
	st := h.get()
	return display.Status{
		Screens:       3,
		PreviousPages: 1,
		Blacked:       st.blacked,
		MultiScreen:   st.multi,
		Displays: []display.DisplayStatus{
			{Name: "Virtual-2", Role: "primary", Bounds: platform.Rect{Width: 1920, Height: 1080}},
		},
	}, nil
}

func (h *stubHandler) Blackout() error {
	h.do(func(s *stubState) { s.blacked = true })
	return nil
}

func (h *stubHandler) Unblackout() error {
	h.do(func(s *stubState) { s.blacked = false })
	return nil
}

func (h *stubHandler) ToggleBlackout() (bool, error) {
	var blacked bool
	h.do(func(s *stubState) {
		s.blacked = !s.blacked
		blacked = s.blacked
	})
	return blacked, nil
}

func (h *stubHandler) SetDesktopMode(b bool) error {
	h.do(func(s *stubState) { s.desktop = b })
	return nil
}

func (h *stubHandler) MainMode() error {
	h.do(func(s *stubState) { s.desktop = false })
	return nil
}

func (h *stubHandler) SetMultiScreen(b bool) error {
	h.do(func(s *stubState) { s.multi = b })
	return nil
}

func (h *stubHandler) SetSurface(kind string, index int, window uint32) error {
	h.do(func(s *stubState) { s.surface = fmt.Sprintf("%s:%d:%x", kind, index, window) })
	return nil
}

func (h *stubHandler) Relayout() error { return nil }
func (h *stubHandler) Reload() error   { return nil }

func startDaemon(t *testing.T) (*stubHandler, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "srcli")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	h := &stubHandler{state: stubState{multi: true}}
	path := filepath.Join(dir, "s.sock")
	srv := ipc.NewServerAt(path, h, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return h, path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseOnOff(t *testing.T) {
	for in, want := range map[string]bool{"on": true, "ON": true, "true": true, "1": true, "off": false, "no": false} {
		got, err := parseOnOff(in)
		if err != nil || got != want {
			t.Errorf("parseOnOff(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseOnOff("maybe"); err == nil {
		t.Error("expected error for maybe")
	}
}

func TestParseSurfaceArgs(t *testing.T) {
	tests := []struct {
		args    []string
		kind    string
		index   int
		window  uint32
		wantErr bool
	}{
		{[]string{"display", "0x3a00007"}, "display", 0, 0x3a00007, false},
		{[]string{"control", "4194311"}, "control", 0, 4194311, false},
		{[]string{"previous", "1", "0x10"}, "previous", 1, 0x10, false},
		{[]string{"desktop", "0"}, "desktop", 0, 0, false},
		{[]string{"previous", "0x10"}, "", 0, 0, true},
		{[]string{"previous", "-1", "0x10"}, "", 0, 0, true},
		{[]string{"display", "1", "0x10"}, "", 0, 0, true},
		{[]string{"sidebar", "0x10"}, "", 0, 0, true},
		{[]string{"display", "zz"}, "", 0, 0, true},
	}
	for _, tt := range tests {
		kind, index, window, err := parseSurfaceArgs(tt.args)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSurfaceArgs(%v) expected error", tt.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSurfaceArgs(%v): %v", tt.args, err)
			continue
		}
		if kind != tt.kind || index != tt.index || window != tt.window {
			t.Errorf("parseSurfaceArgs(%v) = %s %d %#x", tt.args, kind, index, window)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	plain := lipgloss.NewStyle()
	s := styles{label: plain, good: plain, warn: plain, bad: plain}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &ipc.StatusData{
		Status: display.Status{
			Screens:       4,
			PreviousPages: 1,
			HasControl:    true,
			Blacked:       true,
			Pass:          "01HX",
			LastLayout:    now.Add(-3 * time.Minute),
			LastError:     "display surface: boom",
			Surfaces:      display.SurfaceStatus{Display: true, Previous: 2},
		},
		UptimeSeconds: 7200,
		PID:           42,
	}

	var buf bytes.Buffer
	printStatus(&buf, st, s, now)
	out := buf.String()
	for _, want := range []string{"pid:", "42", "2h0m0s", "2 hours ago", "screens:", "blackout:", "active", "display, previous x2", "3 minutes ago", "01HX", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("multi_screen: false\nscreens:\n  rules:\n    - {match: \"HDMI-*\", role: primary}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "config: ok") || !strings.Contains(out, "1 rule(s)") {
		t.Errorf("validate output = %q", out)
	}

	out, err = run(t, "--config", path, "config", "print")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out, "multi_screen: false") || !strings.Contains(out, "HDMI-*") {
		t.Errorf("print output = %q", out)
	}

	out, err = run(t, "--config", path, "config", "path")
	if err != nil || strings.TrimSpace(out) != path {
		t.Errorf("path = %q, %v", out, err)
	}

	out, err = run(t, "--config", path, "config", "explain", "multi_screen")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.Contains(out, "source: "+path) || !strings.Contains(out, "false") {
		t.Errorf("explain output = %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("log_level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", bad, "config", "validate"); err == nil {
		t.Error("expected validation error")
	}
}

func TestControlCommandsReachDaemon(t *testing.T) {
	h, sock := startDaemon(t)

	if _, err := run(t, "--socket", sock, "blackout"); err != nil || !h.get().blacked {
		t.Fatalf("blackout: err=%v", err)
	}
	out, err := run(t, "--socket", sock, "blackout", "toggle")
	if err != nil || h.get().blacked || !strings.Contains(out, "blackout: off") {
		t.Fatalf("toggle: out=%q err=%v", out, err)
	}
	if _, err := run(t, "--socket", sock, "desktop", "on"); err != nil || !h.get().desktop {
		t.Fatalf("desktop on: err=%v", err)
	}
	if _, err := run(t, "--socket", sock, "main-mode"); err != nil || h.get().desktop {
		t.Fatalf("main-mode: err=%v", err)
	}
	if _, err := run(t, "--socket", sock, "multiscreen", "off"); err != nil || h.get().multi {
		t.Fatalf("multiscreen off: err=%v", err)
	}
	if _, err := run(t, "--socket", sock, "surface", "set", "previous", "1", "0x2a"); err != nil || h.get().surface != "previous:1:2a" {
		t.Fatalf("surface set: err=%v surface=%q", err, h.get().surface)
	}
	if _, err := run(t, "--socket", sock, "desktop", "sideways"); err == nil {
		t.Error("expected error for bad desktop argument")
	}

	out, err = run(t, "--socket", sock, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var st ipc.StatusData
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("status json: %v\n%s", err, out)
	}
	if st.Screens != 3 || st.PID == 0 {
		t.Errorf("status = %+v", st)
	}

	out, err = run(t, "--socket", sock, "displays")
	if err != nil || !strings.Contains(out, "Virtual-2") || !strings.Contains(out, "1920x1080+0+0") {
		t.Errorf("displays: out=%q err=%v", out, err)
	}
}

func TestCommandsWithoutDaemon(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "none.sock")
	if _, err := run(t, "--socket", sock, "relayout"); err == nil {
		t.Fatal("expected error without daemon")
	}
}

func TestLevelHandlerFollowsLevelVar(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := newLogger(&buf, level)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	level.Set(slog.LevelDebug)
	logger.With("display", "Virtual-2").Debug("shown")
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "Virtual-2") {
		t.Errorf("debug not logged after level change: %q", buf.String())
	}
}

func TestBadLogLevelRejected(t *testing.T) {
	if _, err := run(t, "--log-level", "loud", "config", "path"); err == nil {
		t.Error("expected error for unknown log level")
	}
}
