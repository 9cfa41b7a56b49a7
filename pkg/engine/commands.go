package engine

import (
	"strings"

	"github.com/dougsko/rigd/pkg/hardware"
)

// Command is a request executed on the engine goroutine. Commands are
// fire-and-forget: Submit returns at once and no result is reported.
type Command interface {
	command()
}

// SetFrequency tunes the current VFO, in Hz
type SetFrequency struct {
	Hz float64
}

// SetMode selects a normalized mode, e.g. SSB/LSB or CW
type SetMode struct {
	Mode    string
	Submode string
}

// SetRawMode selects a raw rig mode
type SetRawMode struct {
	Mode hardware.Mode
}

type SetPTT struct {
	On bool
}

// SetKeySpeed sets the rig keyer speed on behalf of the user
type SetKeySpeed struct {
	WPM int
}

// SyncKeySpeed follows a keyer speed change made elsewhere. It is only
// applied when the profile enables key speed sync.
type SyncKeySpeed struct {
	WPM int
}

type SendMorse struct {
	Text string
}

type StopMorse struct{}

type openRequest struct{}
type closeRequest struct{}
type resendRequest struct{}

func (SetFrequency) command()  {}
func (SetMode) command()       {}
func (SetRawMode) command()    {}
func (SetPTT) command()        {}
func (SetKeySpeed) command()   {}
func (SyncKeySpeed) command()  {}
func (SendMorse) command()     {}
func (StopMorse) command()     {}
func (openRequest) command()   {}
func (closeRequest) command()  {}
func (resendRequest) command() {}

// Submit queues a command. It never blocks.
func (e *Engine) Submit(c Command) {
	e.mailbox.put(c)
}

// Open (re)connects to the rig of the currently selected profile
func (e *Engine) Open() { e.Submit(openRequest{}) }

// Close disconnects from the rig
func (e *Engine) Close() { e.Submit(closeRequest{}) }

// RequestFullState makes the next poll publish every enabled feature,
// changed or not.
func (e *Engine) RequestFullState() { e.Submit(resendRequest{}) }

// SetFrequency tunes the rig. Values <= 0 are dropped.
func (e *Engine) SetFrequency(hz float64) {
	if hz > 0 {
		e.Submit(SetFrequency{Hz: hz})
	}
}

// SetMode selects a normalized mode and submode
func (e *Engine) SetMode(mode, submode string) {
	e.Submit(SetMode{Mode: mode, Submode: submode})
}

// SetModeRaw selects a mode by its rig mode name, e.g. PKTUSB
func (e *Engine) SetModeRaw(name string) {
	e.Submit(SetRawMode{Mode: e.backend.ParseMode(name)})
}

func (e *Engine) SetPTT(on bool) { e.Submit(SetPTT{On: on}) }

func (e *Engine) SetKeySpeed(wpm int) { e.Submit(SetKeySpeed{WPM: wpm}) }

func (e *Engine) SyncKeySpeed(wpm int) { e.Submit(SyncKeySpeed{WPM: wpm}) }

func (e *Engine) SendMorse(text string) { e.Submit(SendMorse{Text: text}) }

func (e *Engine) StopMorse() { e.Submit(StopMorse{}) }

// drainPending executes every queued command in order
func (e *Engine) drainPending() {
	for _, c := range e.mailbox.take() {
		e.execute(c)
	}
	e.publish()
}

func (e *Engine) execute(c Command) {
	switch c := c.(type) {
	case openRequest:
		e.lock.Lock()
		e.openRig()
		e.lock.Unlock()
	case closeRequest:
		e.lock.Lock()
		e.closeRig(true)
		e.lock.Unlock()
	case resendRequest:
		if e.handle != nil {
			e.force = true
		}
	case SetFrequency:
		e.setFrequency(c.Hz)
	case SetMode:
		e.setMode(RawMode(strings.ToUpper(c.Mode), strings.ToUpper(c.Submode)))
	case SetRawMode:
		e.setMode(c.Mode)
	case SetPTT:
		e.setPTT(c.On)
	case SetKeySpeed:
		if e.handle != nil && e.connected.GetKeySpeed {
			e.setKeySpeed(c.WPM)
		}
	case SyncKeySpeed:
		if e.handle != nil && e.connected.KeySpeedSync {
			e.setKeySpeed(c.WPM)
		}
	case SendMorse:
		e.sendMorse(c.Text)
	case StopMorse:
		e.stopMorse()
	default:
		e.log.Warnf(component, "Unknown command %T", c)
	}
}

func (e *Engine) setFrequency(hz float64) {
	if hz <= 0 || e.handle == nil || !e.connected.GetFreqInfo {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if hz == e.lo.Freq {
		return
	}

	// The shadow is left alone, the next poll reads the new value back.
	if err := e.handle.SetFreq(hz); err != nil {
		e.fatal("Set Frequency Error", err)
	}
	e.settle()
}

func (e *Engine) setMode(mode hardware.Mode) {
	if e.handle == nil || !e.connected.GetModeInfo {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if mode == hardware.ModeNone || mode == e.lo.Mode {
		return
	}

	// Not every rig implements set mode correctly, failures are not fatal.
	if err := e.handle.SetMode(mode, hardware.PassbandNoChange); err != nil {
		e.log.Debugf(component, "Set mode %s: %v", mode, err)
	}
	e.settle()
}

func (e *Engine) setPTT(on bool) {
	if e.handle == nil || !e.connected.GetPTTInfo {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.handle.SetPTT(on); err != nil {
		e.fatal("Set PTT Error", err)
	}
	e.settle()
}

func (e *Engine) setKeySpeed(wpm int) {
	if wpm < 0 {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.handle.SetKeySpeed(wpm); err != nil {
		e.log.Warnf(component, "Cannot set keyer speed: %v", err)
	}
	e.settle()
}

func (e *Engine) sendMorse(text string) {
	if e.handle == nil || text == "" {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.handle.SendMorse(text); err != nil {
		e.log.Warnf(component, "Cannot send CW text: %v", err)
	}
}

func (e *Engine) stopMorse() {
	if e.handle == nil {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if err := e.handle.StopMorse(); err != nil {
		e.log.Warnf(component, "Cannot stop morse sending: %v", err)
	}
}
