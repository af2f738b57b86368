package mcp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/ipc"
)

type fakeClient struct {
	calls   []string
	blacked bool
	err     error

	status   ipc.StatusData
	displays []display.DisplayStatus
	surface  ipc.SetSurfacePayload
}

func (f *fakeClient) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeClient) Status() (*ipc.StatusData, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	st := f.status
	st.Blacked = f.blacked
	return &st, nil
}

func (f *fakeClient) Displays() (*ipc.DisplaysData, error) {
	if err := f.record("displays"); err != nil {
		return nil, err
	}
	return &ipc.DisplaysData{Displays: f.displays}, nil
}

func (f *fakeClient) Blackout() error {
	if err := f.record("blackout"); err != nil {
		return err
	}
	f.blacked = true
	return nil
}

func (f *fakeClient) Unblackout() error {
	if err := f.record("unblackout"); err != nil {
		return err
	}
	f.blacked = false
	return nil
}

func (f *fakeClient) ToggleBlackout() (bool, error) {
	if err := f.record("toggle"); err != nil {
		return false, err
	}
	f.blacked = !f.blacked
	return f.blacked, nil
}

func (f *fakeClient) SetDesktopMode(bool) error { return f.record("desktop") }
func (f *fakeClient) SetMultiScreen(bool) error { return f.record("multi") }
func (f *fakeClient) Relayout() error           { return f.record("relayout") }

func (f *fakeClient) SetSurface(kind string, index int, window uint32) error {
	if err := f.record("surface"); err != nil {
		return err
	}
	f.surface = ipc.SetSurfacePayload{Kind: kind, Index: index, Window: window}
	return nil
}

func TestHandleGetStatus(t *testing.T) {
	fc := &fakeClient{status: ipc.StatusData{
		Status:        display.Status{Screens: 3, PreviousPages: 1, MultiScreen: true},
		UptimeSeconds: 42,
		PID:           7,
	}}
	s := NewServer(fc, nil)

	_, out, err := s.handleGetStatus(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("handleGetStatus: %v", err)
	}
	if out.Screens != 3 || out.PreviousPages != 1 || !out.MultiScreen {
		t.Errorf("status = %+v", out.Status)
	}
	if out.UptimeSeconds != 42 || out.PID != 7 {
		t.Errorf("uptime/pid = %d/%d, want 42/7", out.UptimeSeconds, out.PID)
	}
}

func TestHandleListDisplaysNeverNil(t *testing.T) {
	s := NewServer(&fakeClient{}, nil)
	_, out, err := s.handleListDisplays(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("handleListDisplays: %v", err)
	}
	if out.Displays == nil {
		t.Fatal("displays should be an empty list, not nil")
	}

	fc := &fakeClient{displays: []display.DisplayStatus{{Name: "Virtual-2", Role: "primary"}}}
	s = NewServer(fc, nil)
	_, out, err = s.handleListDisplays(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("handleListDisplays: %v", err)
	}
	if len(out.Displays) != 1 || out.Displays[0].Role != "primary" {
		t.Errorf("displays = %+v", out.Displays)
	}
}

func TestHandleBlackout(t *testing.T) {
	fc := &fakeClient{}
	s := NewServer(fc, nil)
	ctx := context.Background()

	_, out, err := s.handleBlackout(ctx, nil, BlackoutInput{})
	if err != nil || !out.Blacked {
		t.Fatalf("blackout: out=%+v err=%v", out, err)
	}
	_, out, err = s.handleBlackout(ctx, nil, BlackoutInput{Toggle: true})
	if err != nil || out.Blacked {
		t.Fatalf("toggle: out=%+v err=%v", out, err)
	}
	_, out, err = s.handleUnblackout(ctx, nil, EmptyInput{})
	if err != nil || out.Blacked {
		t.Fatalf("unblackout: out=%+v err=%v", out, err)
	}

	want := []string{"blackout", "toggle", "unblackout"}
	if strings.Join(fc.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", fc.calls, want)
	}
}

func TestHandleSetSurface(t *testing.T) {
	tests := []struct {
		name    string
		in      SetSurfaceInput
		wantErr bool
		wantMsg string
	}{
		{"control", SetSurfaceInput{Kind: "control", Window: 0x41}, false, "control bound to 0x41"},
		{"previous index", SetSurfaceInput{Kind: "previous", Index: 1, Window: 0x50}, false, "previous[1] bound to 0x50"},
		{"unpin", SetSurfaceInput{Kind: "desktop"}, false, "desktop unpinned"},
		{"unknown kind", SetSurfaceInput{Kind: "sidebar", Window: 1}, true, ""},
		{"negative index", SetSurfaceInput{Kind: "previous", Index: -1, Window: 1}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeClient{}
			s := NewServer(fc, nil)
			_, out, err := s.handleSetSurface(context.Background(), nil, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if len(fc.calls) != 0 {
					t.Errorf("client should not be called, got %v", fc.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("handleSetSurface: %v", err)
			}
			if out.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", out.Message, tt.wantMsg)
			}
			if fc.surface.Kind != tt.in.Kind || fc.surface.Index != tt.in.Index || fc.surface.Window != tt.in.Window {
				t.Errorf("forwarded %+v, want %+v", fc.surface, tt.in)
			}
		})
	}
}

func TestHandlersWrapClientErrors(t *testing.T) {
	fc := &fakeClient{err: ipc.ErrDaemonNotRunning}
	s := NewServer(fc, nil)
	ctx := context.Background()

	if _, _, err := s.handleRelayout(ctx, nil, EmptyInput{}); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Errorf("relayout err = %v", err)
	}
	if _, _, err := s.handleSetDesktopMode(ctx, nil, SetDesktopModeInput{Displayed: true}); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Errorf("desktop err = %v", err)
	}
	if _, _, err := s.handleSetMultiScreen(ctx, nil, SetMultiScreenInput{}); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Errorf("multi err = %v", err)
	}
	if _, _, err := s.handleGetStatus(ctx, nil, EmptyInput{}); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Errorf("status err = %v", err)
	}
}

func TestToolsOverSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := &fakeClient{}
	s := NewServer(fc, nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"blackout", "get_status", "list_displays", "relayout", "set_desktop_mode", "set_multi_screen", "set_surface", "unblackout"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("tools = %v, want %v", names, want)
	}

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: "relayout", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("relayout returned a tool error: %+v", res.Content)
	}
	if len(fc.calls) != 1 || fc.calls[0] != "relayout" {
		t.Errorf("calls = %v, want [relayout]", fc.calls)
	}
}
