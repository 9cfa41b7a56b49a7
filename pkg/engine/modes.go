package engine

import (
	"errors"
	"fmt"

	"github.com/dougsko/rigd/pkg/hardware"
)

// ErrBusy is returned by AvailableModes when the rig handle stays busy
// for longer than Options.ModesWait
var ErrBusy = errors.New("rig busy")

type modePair struct {
	mode    string
	submode string
}

// normalizedModes maps raw rig modes to the (mode, submode) pair used by
// the rest of the application. Modes missing here have no normalized form.
var normalizedModes = map[hardware.Mode]modePair{
	hardware.ModeAM:      {"AM", ""},
	hardware.ModeCW:      {"CW", ""},
	hardware.ModeUSB:     {"SSB", "USB"},
	hardware.ModeLSB:     {"SSB", "LSB"},
	hardware.ModeRTTY:    {"RTTY", ""},
	hardware.ModeFM:      {"FM", ""},
	hardware.ModeWFM:     {"FM", ""},
	hardware.ModeCWR:     {"CW", ""},
	hardware.ModeRTTYR:   {"RTTY", ""},
	hardware.ModeAMS:     {"AM", ""},
	hardware.ModePKTLSB:  {"SSB", "LSB"},
	hardware.ModePKTUSB:  {"SSB", "USB"},
	hardware.ModePKTFM:   {"FM", ""},
	hardware.ModeECSSUSB: {"SSB", "USB"},
	hardware.ModeECSSLSB: {"SSB", "LSB"},
	hardware.ModeSAL:     {"AM", ""},
	hardware.ModeSAH:     {"AM", ""},
	hardware.ModeFMN:     {"FM", ""},
	hardware.ModePKTAM:   {"AM", ""},
}

// rawModes maps a normalized (mode, submode) pair back to the raw mode
// sent to the rig. An empty submode matches any submode.
var rawModes = []struct {
	modePair
	raw hardware.Mode
}{
	{modePair{"SSB", "LSB"}, hardware.ModeLSB},
	{modePair{"SSB", ""}, hardware.ModeUSB},
	{modePair{"CW", ""}, hardware.ModeCW},
	{modePair{"AM", ""}, hardware.ModeAM},
	{modePair{"FM", ""}, hardware.ModeFM},
	{modePair{"RTTY", ""}, hardware.ModeRTTY},
}

// defaultBandwidth is the occupied bandwidth in Hz assumed for a raw mode
// when the rig does not report one.
var defaultBandwidth = map[hardware.Mode]int{
	hardware.ModeAM:      6000,
	hardware.ModeAMS:     6000,
	hardware.ModePKTAM:   6000,
	hardware.ModeSAH:     6000,
	hardware.ModeSAL:     6000,
	hardware.ModeCW:      1000,
	hardware.ModeCWR:     1000,
	hardware.ModeUSB:     2500,
	hardware.ModeLSB:     2500,
	hardware.ModePKTLSB:  2500,
	hardware.ModePKTUSB:  2500,
	hardware.ModeECSSUSB: 2500,
	hardware.ModeECSSLSB: 2500,
	hardware.ModeRTTY:    2400,
	hardware.ModeRTTYR:   2400,
	hardware.ModeFM:      12500,
	hardware.ModePKTFM:   12500,
	hardware.ModeFMN:     12500,
	hardware.ModeWFM:     25000,
}

const fallbackBandwidth = 6000

// NormalizeMode returns the mode and submode for a raw rig mode. Both are
// empty for modes without a normalized form.
func NormalizeMode(raw hardware.Mode) (mode, submode string) {
	p := normalizedModes[raw]
	return p.mode, p.submode
}

// RawMode resolves a normalized mode and submode to a raw rig mode,
// ModeNone if there is no match.
func RawMode(mode, submode string) hardware.Mode {
	for _, m := range rawModes {
		if m.mode == mode && (m.submode == "" || m.submode == submode) {
			return m.raw
		}
	}
	return hardware.ModeNone
}

// Bandwidth returns the default occupied bandwidth of a raw mode in Hz
func Bandwidth(raw hardware.Mode) int {
	if bw, ok := defaultBandwidth[raw]; ok {
		return bw
	}
	return fallbackBandwidth
}

// NormalBandwidth returns the default occupied bandwidth of a
// normalized mode in Hz
func NormalBandwidth(mode, submode string) int {
	return Bandwidth(RawMode(mode, submode))
}

// networkRelayModes is offered for network relays, whose reported mode
// list describes the relay rather than the rig behind it.
const networkRelayModes = hardware.ModeCW | hardware.ModeSSB | hardware.ModeFM | hardware.ModeAM

// AvailableModes lists the display names of the modes supported by the
// currently selected profile's rig model. It uses its own short-lived
// handle and never touches the engine's connection, but holds the handle
// lock so backend library calls are not interleaved with the engine's.
func (e *Engine) AvailableModes() ([]string, error) {
	p := e.profiles.Current()

	if !e.lock.TryLock(e.opts.ModesWait) {
		return nil, ErrBusy
	}
	defer e.lock.Unlock()

	h, err := e.backend.Init(p.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to init model %d: %w", p.Model, err)
	}
	defer h.Close()

	modes := h.Caps().Modes
	if h.Caps().Model == hardware.ModelNetRigctl {
		modes = networkRelayModes
	}

	var names []string
	for i := 0; i < hardware.ModeBits; i++ {
		name := e.backend.ModeName(modes & (hardware.Mode(1) << i))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
