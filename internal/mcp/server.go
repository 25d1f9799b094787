// Package mcp exposes the daemon's state to agent tooling over the
// Model Context Protocol. All tools are read-only views of the running
// daemon, fetched over the IPC socket.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/softveil/softveil/internal/ipc"
)

const (
	ServerName    = "softveil"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for softveil inspection.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server backed by the daemon's IPC socket.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Get the dimming daemon's state: monitoring state, tracking profile, display and mask counts, uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the display topology the daemon is overlaying: bounds and measured refresh rate per display.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_active_regions",
		Description: "Get the rectangles currently punched out of the overlay, in display-local coordinates. Optionally filter by display id.",
	}, s.handleGetActiveRegions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_peripherals",
		Description: "Get the detected dock and shelf surfaces the overlay leaves uncovered.",
	}, s.handleGetPeripherals)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("daemon status: %w", err)
	}
	return nil, GetStatusOutput{
		State:         status.State,
		Profile:       status.Profile,
		DisplayCount:  status.DisplayCount,
		MaskCount:     status.MaskCount,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	displays, err := s.client.GetDisplays()
	if err != nil {
		return nil, ListDisplaysOutput{}, fmt.Errorf("daemon displays: %w", err)
	}

	out := ListDisplaysOutput{Displays: make([]DisplayEntry, len(displays.Displays))}
	for i, d := range displays.Displays {
		out.Displays[i] = DisplayEntry{
			ID:        d.ID,
			Name:      d.Name,
			X:         d.X,
			Y:         d.Y,
			Width:     d.Width,
			Height:    d.Height,
			RefreshHz: d.RefreshHz,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetActiveRegions(_ context.Context, _ *mcpsdk.CallToolRequest, args GetActiveRegionsInput) (*mcpsdk.CallToolResult, GetActiveRegionsOutput, error) {
	regions, err := s.client.GetRegions()
	if err != nil {
		return nil, GetActiveRegionsOutput{}, fmt.Errorf("daemon regions: %w", err)
	}

	out := GetActiveRegionsOutput{State: regions.State}
	for _, r := range regions.Regions {
		if args.Display != nil && r.Display != *args.Display {
			continue
		}
		out.Regions = append(out.Regions, RegionEntry{
			Display:      r.Display,
			X:            r.X,
			Y:            r.Y,
			Width:        r.Width,
			Height:       r.Height,
			CornerRadius: r.CornerRadius,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetPeripherals(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetPeripheralsInput) (*mcpsdk.CallToolResult, GetPeripheralsOutput, error) {
	peripherals, err := s.client.GetPeripherals()
	if err != nil {
		return nil, GetPeripheralsOutput{}, fmt.Errorf("daemon peripherals: %w", err)
	}

	out := GetPeripheralsOutput{Peripherals: make([]PeripheralEntry, len(peripherals.Peripherals))}
	for i, p := range peripherals.Peripherals {
		out.Peripherals[i] = PeripheralEntry{
			Display:    p.Display,
			Kind:       p.Kind,
			Edge:       p.Edge,
			AutoHidden: p.AutoHidden,
			X:          p.X,
			Y:          p.Y,
			Width:      p.Width,
			Height:     p.Height,
		}
	}
	return nil, out, nil
}
