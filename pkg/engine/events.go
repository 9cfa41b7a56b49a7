package engine

import "sync"

// Event is a notification emitted by the engine
type Event interface {
	// EventType is the stable wire name of the event
	EventType() string
}

// Connected is emitted after a rig was opened successfully
type Connected struct {
	Profile string `json:"profile"`
}

// Disconnected is emitted whenever the rig is closed
type Disconnected struct{}

// FrequencyChanged carries the VFO frequency and the derived RIT/XIT
// frequencies, all in Hz.
type FrequencyChanged struct {
	ID      OscillatorID `json:"id"`
	Freq    float64      `json:"freq"`
	RITFreq float64      `json:"rit_freq"`
	XITFreq float64      `json:"xit_freq"`
}

// ModeChanged carries the raw rig mode name, its normalized mode and
// submode, and the passband in Hz.
type ModeChanged struct {
	ID       OscillatorID `json:"id"`
	Raw      string       `json:"raw"`
	Mode     string       `json:"mode"`
	Submode  string       `json:"submode"`
	Passband int          `json:"passband"`
}

type VFOChanged struct {
	ID  OscillatorID `json:"id"`
	VFO string       `json:"vfo"`
}

type PTTChanged struct {
	ID  OscillatorID `json:"id"`
	PTT bool         `json:"ptt"`
}

// PowerChanged carries the output power in watts
type PowerChanged struct {
	ID    OscillatorID `json:"id"`
	Watts float64      `json:"watts"`
}

// RITChanged carries the receive offset in Hz
type RITChanged struct {
	ID     OscillatorID `json:"id"`
	Offset float64      `json:"offset"`
}

// XITChanged carries the transmit offset in Hz
type XITChanged struct {
	ID     OscillatorID `json:"id"`
	Offset float64      `json:"offset"`
}

type KeySpeedChanged struct {
	ID  OscillatorID `json:"id"`
	WPM int          `json:"wpm"`
}

// Error reports a configuration, connection or fatal runtime error
type Error struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// CWKeyOpenRequest asks the owner of the named CW keyer to open it
type CWKeyOpenRequest struct {
	Key string `json:"key"`
}

// CWKeyCloseRequest asks the owner of the named CW keyer to close it
type CWKeyCloseRequest struct {
	Key string `json:"key"`
}

func (Connected) EventType() string         { return "connected" }
func (Disconnected) EventType() string      { return "disconnected" }
func (FrequencyChanged) EventType() string  { return "frequency" }
func (ModeChanged) EventType() string       { return "mode" }
func (VFOChanged) EventType() string        { return "vfo" }
func (PTTChanged) EventType() string        { return "ptt" }
func (PowerChanged) EventType() string      { return "power" }
func (RITChanged) EventType() string        { return "rit" }
func (XITChanged) EventType() string        { return "xit" }
func (KeySpeedChanged) EventType() string   { return "keyspeed" }
func (Error) EventType() string             { return "error" }
func (CWKeyOpenRequest) EventType() string  { return "cwkey_open" }
func (CWKeyCloseRequest) EventType() string { return "cwkey_close" }

// Sink consumes engine events. Publish is called from the engine
// goroutine in emission order and must not block for long.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// MultiSink publishes every event to each of its sinks in order
type MultiSink []Sink

func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}

// Recorder is a Sink keeping every event it receives
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset drops all recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
