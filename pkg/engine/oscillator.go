package engine

import "github.com/dougsko/rigd/pkg/hardware"

// OscillatorID identifies a logical VFO of the rig
type OscillatorID int

const VFO1 OscillatorID = 1

// Oscillator is the engine's shadow copy of one VFO. It only holds
// values read back from the rig, never values that were just written.
type Oscillator struct {
	ID       OscillatorID
	Freq     float64 // Hz
	Mode     hardware.Mode
	Passband int // Hz
	VFO      hardware.VFO
	PTT      bool
	Power    uint32  // mW
	RXOffset float64 // Hz
	TXOffset float64 // Hz
	KeySpeed int     // WPM
}

// NewOscillator returns a cleared oscillator
func NewOscillator(id OscillatorID) Oscillator {
	o := Oscillator{ID: id}
	o.Clear()
	return o
}

// Clear resets everything but the ID to defaults
func (o *Oscillator) Clear() {
	*o = Oscillator{
		ID:       o.ID,
		Mode:     hardware.ModeNone,
		Passband: hardware.PassbandNormal,
		VFO:      hardware.VFONone,
	}
}

// RITFreq is the receive frequency
func (o Oscillator) RITFreq() float64 {
	return o.Freq + o.RXOffset
}

// XITFreq is the transmit frequency
func (o Oscillator) XITFreq() float64 {
	return o.Freq + o.TXOffset
}

// Watts is the output power in W
func (o Oscillator) Watts() float64 {
	return float64(o.Power) / 1000
}

func (o Oscillator) frequencyEvent() FrequencyChanged {
	return FrequencyChanged{ID: o.ID, Freq: o.Freq, RITFreq: o.RITFreq(), XITFreq: o.XITFreq()}
}
