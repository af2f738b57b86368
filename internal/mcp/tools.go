package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/screenrole/internal/display"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.client.Status()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("status: %w", err)
	}
	return nil, StatusOutput{
		Status:        st.Status,
		UptimeSeconds: st.UptimeSeconds,
		ConfigPath:    st.ConfigPath,
		PID:           st.PID,
	}, nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	data, err := s.client.Displays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("list displays: %w", err)
	}
	displays := data.Displays
	if displays == nil {
		displays = []display.DisplayStatus{}
	}
	return nil, ListDisplaysOutput{Displays: displays}, nil
}

func (s *Server) handleBlackout(_ context.Context, _ *mcpsdk.CallToolRequest, args BlackoutInput) (*mcpsdk.CallToolResult, BlackoutOutput, error) {
	if args.Toggle {
		blacked, err := s.client.ToggleBlackout()
		if err != nil {
			return nil, BlackoutOutput{}, fmt.Errorf("toggle blackout: %w", err)
		}
		s.logger.Info("mcp blackout toggled", "blacked", blacked)
		return nil, BlackoutOutput{Blacked: blacked}, nil
	}
	if err := s.client.Blackout(); err != nil {
		return nil, BlackoutOutput{}, fmt.Errorf("blackout: %w", err)
	}
	s.logger.Info("mcp blackout entered")
	return nil, BlackoutOutput{Blacked: true}, nil
}

func (s *Server) handleUnblackout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, BlackoutOutput, error) {
	if err := s.client.Unblackout(); err != nil {
		return nil, BlackoutOutput{}, fmt.Errorf("unblackout: %w", err)
	}
	s.logger.Info("mcp blackout left")
	return nil, BlackoutOutput{Blacked: false}, nil
}

func (s *Server) handleSetDesktopMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetDesktopModeInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetDesktopMode(args.Displayed); err != nil {
		return nil, AckOutput{}, fmt.Errorf("set desktop mode: %w", err)
	}
	msg := "desktop hidden"
	if args.Displayed {
		msg = "desktop shown"
	}
	return nil, AckOutput{OK: true, Message: msg}, nil
}

func (s *Server) handleSetMultiScreen(_ context.Context, _ *mcpsdk.CallToolRequest, args SetMultiScreenInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.SetMultiScreen(args.Enabled); err != nil {
		return nil, AckOutput{}, fmt.Errorf("set multi-screen: %w", err)
	}
	msg := "multi-screen disabled"
	if args.Enabled {
		msg = "multi-screen enabled"
	}
	return nil, AckOutput{OK: true, Message: msg}, nil
}

func (s *Server) handleSetSurface(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSurfaceInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	kind, err := display.ParseSurfaceKind(args.Kind)
	if err != nil {
		return nil, AckOutput{}, err
	}
	if args.Index < 0 {
		return nil, AckOutput{}, fmt.Errorf("index must be >= 0")
	}
	if err := s.client.SetSurface(string(kind), args.Index, args.Window); err != nil {
		return nil, AckOutput{}, fmt.Errorf("set surface: %w", err)
	}
	slot := string(kind)
	if kind == display.SurfacePrevious {
		slot = fmt.Sprintf("%s[%d]", kind, args.Index)
	}
	if args.Window == 0 {
		return nil, AckOutput{OK: true, Message: slot + " unpinned"}, nil
	}
	return nil, AckOutput{OK: true, Message: fmt.Sprintf("%s bound to 0x%x", slot, args.Window)}, nil
}

func (s *Server) handleRelayout(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.client.Relayout(); err != nil {
		return nil, AckOutput{}, fmt.Errorf("relayout: %w", err)
	}
	return nil, AckOutput{OK: true, Message: "layout pass complete"}, nil
}
