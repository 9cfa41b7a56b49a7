package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/rigd/pkg/engine"
	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/profile"
	"github.com/dougsko/rigd/pkg/protocol"
)

type fakeRig struct {
	mu        sync.Mutex
	calls     []string
	state     engine.Oscillator
	profile   profile.Profile
	connected bool
	morse     bool
	modes     []string
	modesErr  error
}

func newFakeRig() *fakeRig {
	return &fakeRig{state: engine.NewOscillator(engine.VFO1)}
}

func (f *fakeRig) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeRig) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRig) Open()                        { f.record("open") }
func (f *fakeRig) Close()                       { f.record("close") }
func (f *fakeRig) RequestFullState()            { f.record("resend") }
func (f *fakeRig) SetFrequency(hz float64)      { f.record("freq %.0f", hz) }
func (f *fakeRig) SetMode(mode, submode string) { f.record("mode %s/%s", mode, submode) }
func (f *fakeRig) SetModeRaw(name string)       { f.record("rawmode %s", name) }
func (f *fakeRig) SetPTT(on bool)               { f.record("ptt %v", on) }
func (f *fakeRig) SetKeySpeed(wpm int)          { f.record("keyspeed %d", wpm) }
func (f *fakeRig) SyncKeySpeed(wpm int)         { f.record("sync %d", wpm) }
func (f *fakeRig) SendMorse(text string)        { f.record("morse %s", text) }
func (f *fakeRig) StopMorse()                   { f.record("stopmorse") }

func (f *fakeRig) Snapshot() engine.Snapshot {
	return engine.Snapshot{
		State:          f.state,
		Profile:        f.profile,
		Connected:      f.connected,
		MorseSupported: f.morse,
	}
}

func (f *fakeRig) AvailableModes() ([]string, error) {
	return f.modes, f.modesErr
}

func handle(t *testing.T, s *Server, line string) *protocol.Response {
	t.Helper()
	cmd, err := protocol.ParseCommand(line)
	require.NoError(t, err)
	return s.Handle(cmd)
}

func TestHandleQueuesCommands(t *testing.T) {
	rig := newFakeRig()
	rig.morse = true
	s := New(rig, "")

	for _, line := range []string{
		"OPEN",
		"FREQUENCY:7074000",
		"MODE:SSB USB",
		"RAWMODE:PKTUSB",
		"PTT:1",
		"KEYSPEED:20",
		"SYNCKEYSPEED:18",
		"MORSE:CQ TEST",
		"STOPMORSE",
		"RESEND",
		"CLOSE",
	} {
		resp := handle(t, s, line)
		assert.True(t, resp.Success, "%s: %s", line, resp.Error)
	}

	assert.Equal(t, []string{
		"open",
		"freq 7074000",
		"mode SSB/USB",
		"rawmode PKTUSB",
		"ptt true",
		"keyspeed 20",
		"sync 18",
		"morse CQ TEST",
		"stopmorse",
		"resend",
		"close",
	}, rig.Calls())
}

func TestHandleRejectsBadArgs(t *testing.T) {
	rig := newFakeRig()
	s := New(rig, "")

	for _, line := range []string{
		"FREQUENCY",
		"FREQUENCY:abc",
		"FREQUENCY:-5",
		"MODE",
		"RAWMODE",
		"PTT:sideways",
		"KEYSPEED:-3",
		"MORSE:CQ", // morse unsupported
		"BOGUS",
	} {
		resp := handle(t, s, line)
		assert.False(t, resp.Success, line)
		assert.NotEmpty(t, resp.Error, line)
	}
	assert.Empty(t, rig.Calls())
}

func TestHandleModes(t *testing.T) {
	rig := newFakeRig()
	rig.modes = []string{"USB", "LSB"}
	s := New(rig, "")

	resp := handle(t, s, "MODES")
	require.True(t, resp.Success)
	assert.Equal(t, []string{"USB", "LSB"}, resp.Data["modes"])

	rig.modesErr = errors.New("unknown rig model")
	resp = handle(t, s, "MODES")
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown rig model", resp.Error)
}

func TestStatus(t *testing.T) {
	rig := newFakeRig()
	started := time.Now().Add(-time.Minute)

	status := Status(rig, started)
	assert.False(t, status.Connected)
	assert.Empty(t, status.Profile)
	assert.Empty(t, status.Mode)
	assert.Empty(t, status.VFO)

	rig.connected = true
	rig.morse = true
	rig.profile = profile.Profile{Name: "IC-7300"}
	rig.state.Freq = 14074000
	rig.state.RXOffset = 100
	rig.state.Mode = hardware.ModePKTUSB
	rig.state.Passband = 3000
	rig.state.VFO = hardware.VFOA
	rig.state.Power = 50000

	status = Status(rig, started)
	assert.True(t, status.Connected)
	assert.Equal(t, "IC-7300", status.Profile)
	assert.Equal(t, 14074100.0, status.RITFrequency)
	assert.Equal(t, 14074000.0, status.XITFrequency)
	assert.Equal(t, "PKTUSB", status.RawMode)
	assert.Equal(t, "SSB", status.Mode)
	assert.Equal(t, "USB", status.Submode)
	assert.Equal(t, "VFOA", status.VFO)
	assert.Equal(t, 50.0, status.Watts)
	assert.True(t, status.MorseSupported)
	assert.Equal(t, Version, status.Version)
}

func TestSocket(t *testing.T) {
	rig := newFakeRig()
	socketPath := filepath.Join(t.TempDir(), "rigd.sock")
	s := New(rig, socketPath)
	require.NoError(t, s.Start())
	defer s.Stop()

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	rd := bufio.NewScanner(conn)
	send := func(line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		require.True(t, rd.Scan())
		return rd.Text()
	}

	assert.Contains(t, send("PING"), `"pong"`)
	assert.Contains(t, send("FREQUENCY:3573000"), `"queued":"FREQUENCY"`)
	assert.Contains(t, send("QUIT"), "goodbye")
	assert.False(t, rd.Scan(), "connection should close after QUIT")

	assert.Equal(t, []string{"freq 3573000"}, rig.Calls())
}

func TestStopClosesConnections(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "rigd.sock")
	s := New(newFakeRig(), socketPath)
	require.NoError(t, s.Start())

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	// wait until the server tracks the connection
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.conns) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)

	_, err = net.Dial("unix", socketPath)
	assert.Error(t, err)
}
