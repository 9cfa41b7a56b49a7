package engine

import (
	"testing"

	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		raw     hardware.Mode
		mode    string
		submode string
	}{
		{hardware.ModeUSB, "SSB", "USB"},
		{hardware.ModeLSB, "SSB", "LSB"},
		{hardware.ModePKTLSB, "SSB", "LSB"},
		{hardware.ModeECSSUSB, "SSB", "USB"},
		{hardware.ModeCWR, "CW", ""},
		{hardware.ModeRTTYR, "RTTY", ""},
		{hardware.ModeWFM, "FM", ""},
		{hardware.ModePKTFM, "FM", ""},
		{hardware.ModeSAL, "AM", ""},
		{hardware.ModePKTAM, "AM", ""},
		{hardware.ModeFAX, "", ""},
		{hardware.ModeSAM, "", ""},
		{hardware.ModeDSB, "", ""},
		{hardware.ModeNone, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw.String(), func(t *testing.T) {
			mode, submode := NormalizeMode(tt.raw)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.submode, submode)
		})
	}
}

func TestRawMode(t *testing.T) {
	assert.Equal(t, hardware.ModeLSB, RawMode("SSB", "LSB"))
	assert.Equal(t, hardware.ModeUSB, RawMode("SSB", "USB"))
	assert.Equal(t, hardware.ModeUSB, RawMode("SSB", ""))
	assert.Equal(t, hardware.ModeCW, RawMode("CW", ""))
	assert.Equal(t, hardware.ModeAM, RawMode("AM", ""))
	assert.Equal(t, hardware.ModeFM, RawMode("FM", ""))
	assert.Equal(t, hardware.ModeRTTY, RawMode("RTTY", ""))
	assert.Equal(t, hardware.ModeNone, RawMode("FT8", ""))

	// Every normalized pair leads back to a raw mode normalizing to it
	for raw := range normalizedModes {
		mode, submode := NormalizeMode(raw)
		back := RawMode(mode, submode)
		require.NotEqual(t, hardware.ModeNone, back, raw.String())
		m2, s2 := NormalizeMode(back)
		assert.Equal(t, mode, m2, raw.String())
		assert.Equal(t, submode, s2, raw.String())
	}
}

func TestBandwidth(t *testing.T) {
	assert.Equal(t, 6000, Bandwidth(hardware.ModeAMS))
	assert.Equal(t, 1000, Bandwidth(hardware.ModeCWR))
	assert.Equal(t, 2500, Bandwidth(hardware.ModePKTUSB))
	assert.Equal(t, 2400, Bandwidth(hardware.ModeRTTY))
	assert.Equal(t, 12500, Bandwidth(hardware.ModeFMN))
	assert.Equal(t, 25000, Bandwidth(hardware.ModeWFM))
	assert.Equal(t, 6000, Bandwidth(hardware.ModeFAX))

	assert.Equal(t, 2500, NormalBandwidth("SSB", "LSB"))
	assert.Equal(t, 1000, NormalBandwidth("CW", ""))
	assert.Equal(t, 12500, NormalBandwidth("FM", ""))
	assert.Equal(t, 6000, NormalBandwidth("DIGI", ""))
}

func TestAvailableModes(t *testing.T) {
	t.Run("Rig Mode List", func(t *testing.T) {
		tr := newTestRig(t, dummyProfile())
		tr.rig.SetCaps(hardware.Caps{
			Model: hardware.ModelDummy,
			Modes: hardware.ModeCW | hardware.ModeUSB | hardware.ModeLSB | hardware.ModePKTUSB,
		})

		modes, err := tr.engine.AvailableModes()
		require.NoError(t, err)
		assert.Equal(t, []string{"CW", "USB", "LSB", "PKTUSB"}, modes)
		assert.Equal(t, 0, tr.rig.OpenHandles())
	})

	t.Run("Network Relay", func(t *testing.T) {
		p := dummyProfile()
		p.Model = hardware.ModelNetRigctl
		backend := hardware.NewRouter()
		e := New(backend, profile.NewStatic(p), nil, testOptions())

		modes, err := e.AvailableModes()
		require.NoError(t, err)
		assert.Equal(t, []string{"AM", "CW", "USB", "LSB", "FM"}, modes)
	})

	t.Run("Leaves Connection Alone", func(t *testing.T) {
		tr := newTestRig(t, dummyProfile())
		tr.connect(t)

		_, err := tr.engine.AvailableModes()
		require.NoError(t, err)
		assert.Empty(t, tr.events.Events())
		assert.Equal(t, 1, tr.rig.OpenHandles())
		_, ok := tr.engine.Connected()
		assert.True(t, ok)
	})

	t.Run("No Profile", func(t *testing.T) {
		tr := newTestRig(t, profile.Profile{})
		_, err := tr.engine.AvailableModes()
		assert.ErrorIs(t, err, hardware.ErrUnknownModel)
	})

	t.Run("Handle Busy", func(t *testing.T) {
		tr := newTestRig(t, dummyProfile())
		tr.engine.lock.Lock()
		defer tr.engine.lock.Unlock()

		_, err := tr.engine.AvailableModes()
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, 0, tr.backend.Inits())
	})
}
