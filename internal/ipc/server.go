package ipc

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/engine"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/runtimepath"
)

// StateSource is the engine-side view the server answers queries from.
type StateSource interface {
	Info() engine.Info
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	source       StateSource
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(source StateSource, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		source:     source,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetDisplays:
		return s.handleGetDisplays()
	case CommandGetRegions:
		return s.handleGetRegions()
	case CommandGetPeripherals:
		return s.handleGetPeripherals()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload validates the on-disk configuration and notifies the
// daemon to pick it up.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	if _, err := config.Load(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	info := s.source.Info()

	masks := 0
	for _, m := range info.Masks {
		masks += len(m)
	}

	status := StatusData{
		State:         info.State,
		Profile:       string(info.Profile),
		DisplayCount:  len(info.Displays),
		MaskCount:     masks,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleGetDisplays returns the engine's display topology
func (s *Server) handleGetDisplays() *Response {
	info := s.source.Info()

	displays := make([]DisplayInfo, len(info.Displays))
	for i, d := range info.Displays {
		hz := 0.0
		if d.RefreshPeriod > 0 {
			hz = float64(time.Second) / float64(d.RefreshPeriod)
		}
		displays[i] = DisplayInfo{
			ID:        int(d.ID),
			Name:      d.Name,
			X:         d.Bounds.X,
			Y:         d.Bounds.Y,
			Width:     d.Bounds.Width,
			Height:    d.Bounds.Height,
			RefreshHz: hz,
		}
	}

	resp, _ := NewOKResponse(DisplaysData{Displays: displays})
	return resp
}

// handleGetRegions returns the current per-display mask rectangles
func (s *Server) handleGetRegions() *Response {
	info := s.source.Info()

	ids := make([]int, 0, len(info.Masks))
	for id := range info.Masks {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var regions []RegionInfo
	for _, id := range ids {
		for _, m := range info.Masks[platform.DisplayID(id)] {
			regions = append(regions, RegionInfo{
				Display:      id,
				X:            m.Frame.X,
				Y:            m.Frame.Y,
				Width:        m.Frame.Width,
				Height:       m.Frame.Height,
				CornerRadius: m.CornerRadius,
			})
		}
	}

	resp, _ := NewOKResponse(RegionsData{State: info.State, Regions: regions})
	return resp
}

// handleGetPeripherals returns the detected shelf surfaces
func (s *Server) handleGetPeripherals() *Response {
	info := s.source.Info()

	peripherals := make([]PeripheralInfo, len(info.Peripherals))
	for i, p := range info.Peripherals {
		peripherals[i] = PeripheralInfo{
			Display:    int(p.Display),
			Kind:       p.Kind.String(),
			Edge:       p.Edge.String(),
			AutoHidden: p.AutoHidden,
			X:          p.Frame.X,
			Y:          p.Frame.Y,
			Width:      p.Frame.Width,
			Height:     p.Frame.Height,
		}
	}

	resp, _ := NewOKResponse(PeripheralsData{Peripherals: peripherals})
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
