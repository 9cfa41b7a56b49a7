package hardware

import (
	"errors"
	"fmt"
	"strconv"
)

// Model is the hamlib ID identifying a specific transceiver model.
type Model int

const (
	ModelNone      Model = 0
	ModelDummy     Model = 1 // in-process dummy transceiver
	ModelNetRigctl Model = 2 // rigctld network relay
)

var (
	ErrUnknownModel = errors.New("unknown rig model")
	ErrNotOpen      = errors.New("rig not open")
	ErrNotAvailable = errors.New("not available in this build")
)

// Transport selects how the rig port is addressed
type Transport string

const (
	TransportSerial  Transport = "serial"
	TransportNetwork Transport = "network"
)

// Port holds the connection parameters applied to a handle before Open
type Port struct {
	Transport Transport

	// Network
	Hostname string
	NetPort  int

	// Serial
	Path        string
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string // none, odd, even, mark, space
	FlowControl string // none, hardware, software
}

// Pathname returns the hamlib rig_pathname for the port: host:port for
// network rigs, the device path for serial rigs.
func (p Port) Pathname() string {
	if p.Transport == TransportNetwork {
		return p.Hostname + ":" + strconv.Itoa(p.NetPort)
	}
	return p.Path
}

// Caps describes which operations a handle supports
type Caps struct {
	Model        Model
	ModelName    string
	Manufacturer string

	GetFreq     bool
	GetMode     bool
	GetVFO      bool
	GetPTT      bool // only true for CAT based PTT
	GetPower    bool // RFPOWER level and power2mW conversion
	GetRIT      bool // get_rit and RIT function
	GetXIT      bool // get_xit and XIT function
	GetKeySpeed bool
	SendMorse   bool

	// Modes is the bitmask of supported modes
	Modes Mode
}

// Backend creates handles for transceiver models. It is the vendor
// control library seen from the engine.
type Backend interface {
	// Init allocates a handle for model without touching the port.
	Init(model Model) (Handle, error)

	// ModeName returns the display name of a single mode bit, "" if unknown.
	ModeName(m Mode) string

	// ParseMode resolves a mode name to a raw mode, ModeNone if unknown.
	ParseMode(name string) Mode
}

// Handle is one initialized rig. Handles are not safe for concurrent use.
type Handle interface {
	Caps() Caps

	// Open configures the port and opens the connection.
	Open(port Port) error

	// Close closes the connection and releases the handle. Close on a
	// handle that was never opened only releases it.
	Close() error

	GetFreq() (float64, error)
	GetMode() (Mode, int, error) // mode and passband (PassbandNoChange if not reported)
	GetVFO() (VFO, error)
	GetPTT() (bool, error)
	GetPower() (uint32, error) // mW
	GetFunc(f Func) (bool, error)
	GetRIT() (int, error) // Hz
	GetXIT() (int, error) // Hz
	GetKeySpeed() (int, error)

	SetFreq(hz float64) error
	SetMode(m Mode, passband int) error
	SetPTT(on bool) error
	SetKeySpeed(wpm int) error
	SendMorse(text string) error
	StopMorse() error
}

// Func identifies an on/off rig function
type Func string

const (
	FuncRIT Func = "RIT"
	FuncXIT Func = "XIT"
)

const (
	// PassbandNoChange is reported when the backend cannot tell the passband
	PassbandNoChange = -1
	// PassbandNormal selects the rig's default passband for a mode
	PassbandNormal = 0
)

// RigInfo is a printable description of a handle
func RigInfo(h Handle) string {
	caps := h.Caps()
	return fmt.Sprintf("%s %s (model %d)", caps.Manufacturer, caps.ModelName, caps.Model)
}
