package hardware

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dougsko/rigd/pkg/verbose"
)

const DefaultRigctldAddr = "localhost:4532"

// RigctldTimeout defines the timeout of dial, read and write operations
var RigctldTimeout = time.Second

// RigctldBackend talks to a rigctld (hamlib NET rigctl) server
type RigctldBackend struct{}

// NewRigctldBackend creates a rigctld backend
func NewRigctldBackend() *RigctldBackend {
	return &RigctldBackend{}
}

// Init returns an unopened rigctld handle. Only the network relay model
// is served by this backend.
func (b *RigctldBackend) Init(model Model) (Handle, error) {
	if model != ModelNetRigctl {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, model)
	}
	return &RigctldRig{caps: rigctldCaps()}, nil
}

func (b *RigctldBackend) ModeName(m Mode) string     { return m.String() }
func (b *RigctldBackend) ParseMode(name string) Mode { return ParseMode(name) }

func rigctldCaps() Caps {
	return Caps{
		Model:        ModelNetRigctl,
		ModelName:    "NET rigctl",
		Manufacturer: "Hamlib",
		GetFreq:      true,
		GetMode:      true,
		GetVFO:       true,
		GetPTT:       true,
		SendMorse:    true,
		Modes:        ModeCW | ModeSSB | ModeFM | ModeAM,
	}
}

// RigctldRig is a handle on one rigctld connection
type RigctldRig struct {
	mu      sync.Mutex
	caps    Caps
	addr    string
	conn    *textproto.Conn
	tcpConn net.Conn
}

// Caps returns the capabilities discovered when the handle was opened
func (r *RigctldRig) Caps() Caps {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.caps
}

// Open dials rigctld and queries the supported levels and functions
func (r *RigctldRig) Open(port Port) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.addr = port.Pathname()
	if port.Transport != TransportNetwork || port.Hostname == "" {
		r.addr = DefaultRigctldAddr
	}

	verbose.Printf("rigctld: dialing %s", r.addr)
	tcpConn, err := net.DialTimeout("tcp", r.addr, RigctldTimeout)
	if err != nil {
		return err
	}
	r.tcpConn = tcpConn
	r.conn = textproto.NewConn(tcpConn)

	if levels, err := r.cmd(1, `\get_level ?`); err == nil {
		for _, l := range strings.Fields(levels[0]) {
			switch l {
			case "RFPOWER":
				r.caps.GetPower = true
			case "KEYSPD":
				r.caps.GetKeySpeed = true
			}
		}
	}
	if funcs, err := r.cmd(1, `\get_func ?`); err == nil {
		for _, f := range strings.Fields(funcs[0]) {
			switch Func(f) {
			case FuncRIT:
				r.caps.GetRIT = true
			case FuncXIT:
				r.caps.GetXIT = true
			}
		}
	}
	if r.conn == nil {
		return fmt.Errorf("rigctld %s: connection lost while reading capabilities", r.addr)
	}
	return nil
}

// Close closes the connection to rigctld
func (r *RigctldRig) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn, r.tcpConn = nil, nil
	return err
}

func (r *RigctldRig) GetFreq() (float64, error) {
	resp, err := r.do(1, `\get_freq`)
	if err != nil {
		return 0, err
	}
	return parseFloat(resp[0])
}

func (r *RigctldRig) GetMode() (Mode, int, error) {
	resp, err := r.do(2, `\get_mode`)
	if err != nil {
		return ModeNone, 0, err
	}
	passband, err := strconv.Atoi(resp[1])
	if err != nil {
		return ModeNone, 0, NewRigError(StatusProto)
	}
	return ParseMode(resp[0]), passband, nil
}

func (r *RigctldRig) GetVFO() (VFO, error) {
	resp, err := r.do(1, `\get_vfo`)
	if err != nil {
		return VFONone, err
	}
	return ParseVFO(resp[0]), nil
}

func (r *RigctldRig) GetPTT() (bool, error) {
	resp, err := r.do(1, `\get_ptt`)
	if err != nil {
		return false, err
	}
	return parseBool(resp[0])
}

// GetPower reads the RFPOWER level and converts it to mW at the current
// frequency and mode
func (r *RigctldRig) GetPower() (uint32, error) {
	resp, err := r.do(1, `\get_level RFPOWER`)
	if err != nil {
		return 0, err
	}
	level, err := parseFloat(resp[0])
	if err != nil {
		return 0, err
	}
	freq, err := r.GetFreq()
	if err != nil {
		return 0, err
	}
	mode, _, err := r.GetMode()
	if err != nil {
		return 0, err
	}
	resp, err = r.do(1, `\power2mW %f %.0f %s`, level, freq, mode)
	if err != nil {
		return 0, err
	}
	mW, err := parseFloat(resp[0])
	if err != nil {
		return 0, err
	}
	if math.IsNaN(mW) || mW < 0 || mW > math.MaxUint32 {
		return 0, NewRigError(StatusProto)
	}
	return uint32(mW), nil
}

func (r *RigctldRig) GetFunc(f Func) (bool, error) {
	resp, err := r.do(1, `\get_func %s`, f)
	if err != nil {
		return false, err
	}
	return parseBool(resp[0])
}

func (r *RigctldRig) GetRIT() (int, error) {
	resp, err := r.do(1, `\get_rit`)
	if err != nil {
		return 0, err
	}
	return parseInt(resp[0])
}

func (r *RigctldRig) GetXIT() (int, error) {
	resp, err := r.do(1, `\get_xit`)
	if err != nil {
		return 0, err
	}
	return parseInt(resp[0])
}

func (r *RigctldRig) GetKeySpeed() (int, error) {
	resp, err := r.do(1, `\get_level KEYSPD`)
	if err != nil {
		return 0, err
	}
	return parseInt(resp[0])
}

func (r *RigctldRig) SetFreq(hz float64) error {
	_, err := r.do(1, `\set_freq %.0f`, hz)
	return err
}

func (r *RigctldRig) SetMode(m Mode, passband int) error {
	_, err := r.do(1, `\set_mode %s %d`, m, passband)
	return err
}

func (r *RigctldRig) SetPTT(on bool) error {
	v := 0
	if on {
		v = 1
	}
	_, err := r.do(1, `\set_ptt %d`, v)
	return err
}

func (r *RigctldRig) SetKeySpeed(wpm int) error {
	_, err := r.do(1, `\set_level KEYSPD %d`, wpm)
	return err
}

func (r *RigctldRig) SendMorse(text string) error {
	_, err := r.do(1, `\send_morse %s`, text)
	return err
}

func (r *RigctldRig) StopMorse() error {
	_, err := r.do(1, `\stop_morse`)
	return err
}

func (r *RigctldRig) do(lines int, format string, args ...interface{}) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd(lines, format, args...)
}

// cmd sends one command and reads lines of response; must hold mu.
// Set commands answer with a single "RPRT n" line. A transport error
// drops the connection: a late reply would otherwise be read as the
// answer to the next command. Later calls return ErrNotOpen.
func (r *RigctldRig) cmd(lines int, format string, args ...interface{}) ([]string, error) {
	if r.conn == nil {
		return nil, ErrNotOpen
	}

	resp, err := r.exchange(lines, format, args...)
	if err != nil {
		var re *RigError
		if !errors.As(err, &re) {
			verbose.Printf("rigctld: %s failed, dropping connection: %v", fmt.Sprintf(format, args...), err)
			r.conn.Close()
			r.conn, r.tcpConn = nil, nil
		}
		return nil, err
	}
	verbose.Printf("rigctld: %s -> %q", fmt.Sprintf(format, args...), resp)
	return resp, nil
}

func (r *RigctldRig) exchange(lines int, format string, args ...interface{}) ([]string, error) {
	r.tcpConn.SetDeadline(time.Now().Add(RigctldTimeout))

	id, err := r.conn.Cmd(format, args...)
	if err != nil {
		return nil, err
	}
	r.conn.StartResponse(id)
	defer r.conn.EndResponse(id)

	resp := make([]string, 0, lines)
	for i := 0; i < lines; i++ {
		line, err := r.conn.ReadLine()
		if err != nil {
			return nil, err
		}
		if code, ok := reportCode(line); ok {
			if code != StatusOK {
				return nil, NewRigError(code)
			}
			resp = append(resp, line)
			break
		}
		resp = append(resp, line)
	}
	r.tcpConn.SetDeadline(time.Time{})
	return resp, nil
}

// reportCode parses a "RPRT n" status line
func reportCode(line string) (int, bool) {
	if !strings.HasPrefix(line, "RPRT ") {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(line[5:]))
	if err != nil {
		return StatusProto, true
	}
	return code, true
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, NewRigError(StatusProto)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewRigError(StatusProto)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, NewRigError(StatusProto)
}
