// Package server exposes the rig engine over the line protocol on a unix
// domain socket.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dougsko/rigd/pkg/engine"
	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/logging"
	"github.com/dougsko/rigd/pkg/protocol"
)

// Version is reported by STATUS
var Version = "0.1.0-dev"

const component = "server"

// Rig is the part of the engine the server drives
type Rig interface {
	Open()
	Close()
	RequestFullState()
	SetFrequency(hz float64)
	SetMode(mode, submode string)
	SetModeRaw(name string)
	SetPTT(on bool)
	SetKeySpeed(wpm int)
	SyncKeySpeed(wpm int)
	SendMorse(text string)
	StopMorse()

	Snapshot() engine.Snapshot
	AvailableModes() ([]string, error)
}

// Server accepts line protocol connections on a unix socket
type Server struct {
	rig        Rig
	socketPath string
	startTime  time.Time

	mu       sync.Mutex
	listener net.Listener
	running  bool
	conns    map[net.Conn]struct{}
}

func New(rig Rig, socketPath string) *Server {
	return &Server{
		rig:        rig,
		socketPath: socketPath,
		startTime:  time.Now(),
		conns:      map[net.Conn]struct{}{},
	}
}

// Start creates the socket and begins accepting connections
func (s *Server) Start() error {
	// Remove a stale socket left by a previous run
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create Unix socket: %w", err)
	}

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(s.socketPath, 0660); err != nil {
		logging.Warnf(component, "failed to set socket permissions: %v", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	logging.Infof(component, "listening on %s", s.socketPath)
	go s.acceptConnections(listener)
	return nil
}

// Serve runs the server until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop closes the listener and every open connection
func (s *Server) Stop() error {
	s.mu.Lock()
	s.running = false
	listener := s.listener
	s.listener = nil
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	os.Remove(s.socketPath)
	return nil
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptConnections(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !s.isRunning() {
				return
			}
			logging.Warnf(component, "socket accept error: %v", err)
			continue
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			response := protocol.NewErrorResponse(fmt.Sprintf("parse error: %v", err))
			conn.Write([]byte(response.String() + "\n"))
			continue
		}

		response := s.Handle(cmd)
		conn.Write([]byte(response.String() + "\n"))

		if cmd.Type == protocol.CmdQuit {
			break
		}
	}
}

// Handle executes one command. Rig writes are queued, so success means
// the command was accepted, not that the rig has applied it.
func (s *Server) Handle(cmd *protocol.Command) *protocol.Response {
	switch cmd.Type {
	case protocol.CmdStatus:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"status": Status(s.rig, s.startTime),
		})

	case protocol.CmdOpen:
		s.rig.Open()
		return queued(cmd)

	case protocol.CmdClose:
		s.rig.Close()
		return queued(cmd)

	case protocol.CmdResend:
		s.rig.RequestFullState()
		return queued(cmd)

	case protocol.CmdFrequency:
		hz, err := cmd.Float("frequency")
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		if hz <= 0 {
			return protocol.NewErrorResponse("frequency must be positive")
		}
		s.rig.SetFrequency(hz)
		return queued(cmd)

	case protocol.CmdMode:
		mode := cmd.Arg("mode")
		if mode == "" {
			return protocol.NewErrorResponse("missing mode")
		}
		s.rig.SetMode(mode, cmd.Arg("submode"))
		return queued(cmd)

	case protocol.CmdRawMode:
		mode := cmd.Arg("mode")
		if mode == "" {
			return protocol.NewErrorResponse("missing mode")
		}
		s.rig.SetModeRaw(mode)
		return queued(cmd)

	case protocol.CmdPTT:
		on, err := cmd.Bool("ptt")
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		s.rig.SetPTT(on)
		return queued(cmd)

	case protocol.CmdKeySpeed, protocol.CmdSyncKeySpeed:
		wpm, err := cmd.Int("wpm")
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		if wpm < 0 {
			return protocol.NewErrorResponse("wpm must not be negative")
		}
		if cmd.Type == protocol.CmdSyncKeySpeed {
			s.rig.SyncKeySpeed(wpm)
		} else {
			s.rig.SetKeySpeed(wpm)
		}
		return queued(cmd)

	case protocol.CmdMorse:
		text := cmd.Arg("text")
		if text == "" {
			return protocol.NewErrorResponse("missing text")
		}
		if !s.rig.Snapshot().MorseSupported {
			return protocol.NewErrorResponse("rig cannot send morse")
		}
		s.rig.SendMorse(text)
		return queued(cmd)

	case protocol.CmdStopMorse:
		s.rig.StopMorse()
		return queued(cmd)

	case protocol.CmdModes:
		modes, err := s.rig.AvailableModes()
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return protocol.NewSuccessResponse(map[string]interface{}{
			"modes": modes,
		})

	case protocol.CmdPing:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pong": time.Now().Unix(),
		})

	case protocol.CmdQuit:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"message": "goodbye",
		})

	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

func queued(cmd *protocol.Command) *protocol.Response {
	return protocol.NewSuccessResponse(map[string]interface{}{
		"queued": cmd.Type,
	})
}

// Status snapshots the rig for STATUS and the HTTP API
func Status(rig Rig, started time.Time) protocol.Status {
	snap := rig.Snapshot()
	state := snap.State
	status := protocol.Status{
		Frequency:    state.Freq,
		RITFrequency: state.RITFreq(),
		XITFrequency: state.XITFreq(),
		Passband:     state.Passband,
		RawMode:      state.Mode.String(),
		PTT:          state.PTT,
		Watts:        state.Watts(),
		RITOffset:    state.RXOffset,
		XITOffset:    state.TXOffset,
		KeySpeed:     state.KeySpeed,
		Uptime:       time.Since(started).Round(time.Second).String(),
		StartTime:    started,
		Version:      Version,
	}
	status.Mode, status.Submode = engine.NormalizeMode(state.Mode)
	if state.VFO != hardware.VFONone {
		status.VFO = state.VFO.String()
	}
	if snap.Connected {
		status.Connected = true
		status.Profile = snap.Profile.Name
		status.MorseSupported = snap.MorseSupported
	}
	return status
}
