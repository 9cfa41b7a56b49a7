package hardware

import (
	"fmt"
	"sync"
	"time"

	"github.com/dougsko/rigd/pkg/verbose"
)

// Operation names, shared with the rigctld long command names
const (
	OpOpen        = "open"
	OpGetFreq     = "get_freq"
	OpGetMode     = "get_mode"
	OpGetVFO      = "get_vfo"
	OpGetPTT      = "get_ptt"
	OpGetPower    = "get_power"
	OpGetFunc     = "get_func"
	OpGetRIT      = "get_rit"
	OpGetXIT      = "get_xit"
	OpGetKeySpeed = "get_keyspeed"
	OpSetFreq     = "set_freq"
	OpSetMode     = "set_mode"
	OpSetPTT      = "set_ptt"
	OpSetKeySpeed = "set_keyspeed"
	OpSendMorse   = "send_morse"
	OpStopMorse   = "stop_morse"
)

// MockRig is an in-process transceiver. It backs the dummy model and
// the tests; failures can be injected per operation.
type MockRig struct {
	mutex sync.Mutex

	caps Caps

	frequency float64
	mode      Mode
	passband  int
	vfo       VFO
	ptt       bool
	powerMW   uint32
	ritOn     bool
	rit       int
	xitOn     bool
	xit       int
	keySpeed  int
	morse     []string

	openHandles int
	failures    map[string]error
	delays      map[string]time.Duration
	calls       map[string]int
}

// NewMockRig creates a dummy transceiver on 20m USB with every
// capability enabled
func NewMockRig() *MockRig {
	return &MockRig{
		caps: Caps{
			Model:        ModelDummy,
			ModelName:    "Dummy",
			Manufacturer: "Hamlib",
			GetFreq:      true,
			GetMode:      true,
			GetVFO:       true,
			GetPTT:       true,
			GetPower:     true,
			GetRIT:       true,
			GetXIT:       true,
			GetKeySpeed:  true,
			SendMorse:    true,
			Modes:        AllModes(),
		},
		frequency: 14074000,
		mode:      ModeUSB,
		passband:  2400,
		vfo:       VFOA,
		powerMW:   100000,
		keySpeed:  20,
		failures:  make(map[string]error),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
	}
}

// SetCaps replaces the advertised capabilities
func (r *MockRig) SetCaps(caps Caps) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.caps = caps
}

// Fail makes every following call of op return err; a nil err clears it
func (r *MockRig) Fail(op string, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Delay makes every following call of op take d before it runs, like a
// slow serial link
func (r *MockRig) Delay(op string, d time.Duration) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.delays[op] = d
}

// Calls returns how many times op was invoked
func (r *MockRig) Calls(op string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.calls[op]
}

// OpenHandles returns the number of handles currently open on the rig
func (r *MockRig) OpenHandles() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.openHandles
}

// SetFrequency changes the dial frequency as if turned on the front panel
func (r *MockRig) SetFrequency(hz float64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.frequency = hz
}

// SetMode changes mode and passband from the front panel
func (r *MockRig) SetMode(m Mode, passband int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.mode = m
	r.passband = passband
}

// SetVFO selects a VFO from the front panel
func (r *MockRig) SetVFO(v VFO) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.vfo = v
}

// SetPTT keys the rig from the front panel
func (r *MockRig) SetPTT(on bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.ptt = on
}

// SetPower sets the output power in mW
func (r *MockRig) SetPower(mW uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.powerMW = mW
}

// SetRIT sets the RIT function state and offset
func (r *MockRig) SetRIT(on bool, hz int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.ritOn, r.rit = on, hz
}

// SetXIT sets the XIT function state and offset
func (r *MockRig) SetXIT(on bool, hz int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.xitOn, r.xit = on, hz
}

// SetKeySpeed sets the keyer speed from the front panel
func (r *MockRig) SetKeySpeed(wpm int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.keySpeed = wpm
}

// Frequency returns the current dial frequency
func (r *MockRig) Frequency() float64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.frequency
}

// Mode returns the current mode
func (r *MockRig) Mode() Mode {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.mode
}

// PTT returns the transmit state
func (r *MockRig) PTT() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.ptt
}

// KeySpeed returns the keyer speed
func (r *MockRig) KeySpeed() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.keySpeed
}

// Morse returns every text sent with send_morse
func (r *MockRig) Morse() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.morse...)
}

// call records op and returns its injected failure; must hold mutex
func (r *MockRig) call(op string) error {
	r.calls[op]++
	return r.failures[op]
}

// MockBackend hands out handles on a single MockRig
type MockBackend struct {
	Rig *MockRig

	// InitErr makes Init fail
	InitErr error

	mutex sync.Mutex
	inits int
}

// NewMockBackend creates a backend around a fresh MockRig
func NewMockBackend() *MockBackend {
	return &MockBackend{Rig: NewMockRig()}
}

// Init returns a new handle on the mock rig
func (b *MockBackend) Init(model Model) (Handle, error) {
	b.mutex.Lock()
	b.inits++
	initErr := b.InitErr
	b.mutex.Unlock()

	if initErr != nil {
		return nil, initErr
	}
	if model != ModelDummy {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, model)
	}
	return &mockHandle{rig: b.Rig}, nil
}

// Inits returns the number of Init calls
func (b *MockBackend) Inits() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.inits
}

func (b *MockBackend) ModeName(m Mode) string     { return m.String() }
func (b *MockBackend) ParseMode(name string) Mode { return ParseMode(name) }

type mockHandle struct {
	rig    *MockRig
	opened bool
}

func (h *mockHandle) Caps() Caps {
	h.rig.mutex.Lock()
	defer h.rig.mutex.Unlock()
	return h.rig.caps
}

func (h *mockHandle) Open(port Port) error {
	r := h.rig
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.call(OpOpen); err != nil {
		return err
	}
	verbose.Printf("MockRig: opened on %s", port.Pathname())
	h.opened = true
	r.openHandles++
	return nil
}

func (h *mockHandle) Close() error {
	r := h.rig
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if h.opened {
		h.opened = false
		r.openHandles--
		verbose.Printf("MockRig: closed")
	}
	return nil
}

// begin locks the rig and checks op; callers must unlock on nil error
func (h *mockHandle) begin(op string) error {
	h.rig.mutex.Lock()
	d := h.rig.delays[op]
	h.rig.mutex.Unlock()
	time.Sleep(d)

	h.rig.mutex.Lock()
	if !h.opened {
		h.rig.mutex.Unlock()
		return ErrNotOpen
	}
	if err := h.rig.call(op); err != nil {
		h.rig.mutex.Unlock()
		return err
	}
	return nil
}

func (h *mockHandle) GetFreq() (float64, error) {
	if err := h.begin(OpGetFreq); err != nil {
		return 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.frequency, nil
}

func (h *mockHandle) GetMode() (Mode, int, error) {
	if err := h.begin(OpGetMode); err != nil {
		return ModeNone, 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.mode, h.rig.passband, nil
}

func (h *mockHandle) GetVFO() (VFO, error) {
	if err := h.begin(OpGetVFO); err != nil {
		return VFONone, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.vfo, nil
}

func (h *mockHandle) GetPTT() (bool, error) {
	if err := h.begin(OpGetPTT); err != nil {
		return false, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.ptt, nil
}

func (h *mockHandle) GetPower() (uint32, error) {
	if err := h.begin(OpGetPower); err != nil {
		return 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.powerMW, nil
}

func (h *mockHandle) GetFunc(f Func) (bool, error) {
	if err := h.begin(OpGetFunc); err != nil {
		return false, err
	}
	defer h.rig.mutex.Unlock()
	switch f {
	case FuncRIT:
		return h.rig.ritOn, nil
	case FuncXIT:
		return h.rig.xitOn, nil
	}
	return false, NewRigError(StatusInvalid)
}

func (h *mockHandle) GetRIT() (int, error) {
	if err := h.begin(OpGetRIT); err != nil {
		return 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.rit, nil
}

func (h *mockHandle) GetXIT() (int, error) {
	if err := h.begin(OpGetXIT); err != nil {
		return 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.xit, nil
}

func (h *mockHandle) GetKeySpeed() (int, error) {
	if err := h.begin(OpGetKeySpeed); err != nil {
		return 0, err
	}
	defer h.rig.mutex.Unlock()
	return h.rig.keySpeed, nil
}

func (h *mockHandle) SetFreq(hz float64) error {
	if err := h.begin(OpSetFreq); err != nil {
		return err
	}
	defer h.rig.mutex.Unlock()
	verbose.Printf("MockRig: Setting frequency to %.0f Hz", hz)
	h.rig.frequency = hz
	return nil
}

func (h *mockHandle) SetMode(m Mode, passband int) error {
	if err := h.begin(OpSetMode); err != nil {
		return err
	}
	defer h.rig.mutex.Unlock()
	verbose.Printf("MockRig: Setting mode to %s", m)
	h.rig.mode = m
	if passband != PassbandNoChange {
		h.rig.passband = passband
	}
	return nil
}

func (h *mockHandle) SetPTT(on bool) error {
	if err := h.begin(OpSetPTT); err != nil {
		return err
	}
	defer h.rig.mutex.Unlock()
	if on != h.rig.ptt {
		if on {
			verbose.Printf("MockRig: PTT ON")
		} else {
			verbose.Printf("MockRig: PTT OFF")
		}
	}
	h.rig.ptt = on
	return nil
}

func (h *mockHandle) SetKeySpeed(wpm int) error {
	if err := h.begin(OpSetKeySpeed); err != nil {
		return err
	}
	defer h.rig.mutex.Unlock()
	h.rig.keySpeed = wpm
	return nil
}

func (h *mockHandle) SendMorse(text string) error {
	if err := h.begin(OpSendMorse); err != nil {
		return err
	}
	defer h.rig.mutex.Unlock()
	h.rig.morse = append(h.rig.morse, text)
	return nil
}

func (h *mockHandle) StopMorse() error {
	if err := h.begin(OpStopMorse); err != nil {
		return err
	}
	h.rig.mutex.Unlock()
	return nil
}
