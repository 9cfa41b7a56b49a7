package profile

import (
	"testing"
	"time"

	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/stretchr/testify/assert"
)

func TestProfileEquality(t *testing.T) {
	a := Profile{Name: "IC-7300", Model: 3073, PortPath: "/dev/ttyUSB0", GetFreqInfo: true}
	b := a

	assert.True(t, a.Equal(b))
	b.PollInterval = 250
	assert.False(t, a.Equal(b))

	assert.True(t, Profile{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestProfileHelpers(t *testing.T) {
	p := Profile{AssignedCWKey: "  "}
	assert.False(t, p.HasCWKey())
	p.AssignedCWKey = "winkeyer"
	assert.True(t, p.HasCWKey())

	assert.Equal(t, DefaultPollInterval, p.Poll())
	p.PollInterval = 750
	assert.Equal(t, 750*time.Millisecond, p.Poll())
}

func TestProfilePort(t *testing.T) {
	serial := Profile{
		PortPath:    "/dev/ttyUSB0",
		BaudRate:    38400,
		DataBits:    8,
		StopBits:    1,
		Parity:      "none",
		FlowControl: "hardware",
	}
	port := serial.Port()
	assert.Equal(t, hardware.TransportSerial, port.Transport)
	assert.Equal(t, "/dev/ttyUSB0", port.Pathname())
	assert.Equal(t, 38400, port.BaudRate)
	assert.Equal(t, "hardware", port.FlowControl)

	network := Profile{Transport: hardware.TransportNetwork, Hostname: "127.0.0.1", NetPort: 4532}
	assert.Equal(t, "127.0.0.1:4532", network.Port().Pathname())
}

func TestStatic(t *testing.T) {
	s := NewStatic(Profile{Name: "a"})
	assert.Equal(t, "a", s.Current().Name)
	s.Set(Profile{})
	assert.True(t, s.Current().IsZero())
}
