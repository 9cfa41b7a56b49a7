// Package profile holds rig connection profiles and the providers that
// tell the engine which profile is currently selected.
package profile

import (
	"strings"
	"time"

	"github.com/dougsko/rigd/pkg/hardware"
)

// DefaultPollInterval is used when a profile has no poll interval
const DefaultPollInterval = 500 * time.Millisecond

// Profile describes how to reach a rig and which of its features are
// polled. The zero value means no profile is selected. Profiles are
// compared by value.
type Profile struct {
	Name  string         `yaml:"name" json:"name"`
	Model hardware.Model `yaml:"model" json:"model"`

	Transport hardware.Transport `yaml:"transport" json:"transport"`
	Hostname  string             `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	NetPort   int                `yaml:"net_port,omitempty" json:"net_port,omitempty"`

	PortPath    string `yaml:"port_path,omitempty" json:"port_path,omitempty"`
	BaudRate    int    `yaml:"baud_rate,omitempty" json:"baud_rate,omitempty"`
	DataBits    int    `yaml:"data_bits,omitempty" json:"data_bits,omitempty"`
	StopBits    int    `yaml:"stop_bits,omitempty" json:"stop_bits,omitempty"`
	Parity      string `yaml:"parity,omitempty" json:"parity,omitempty"`
	FlowControl string `yaml:"flow_control,omitempty" json:"flow_control,omitempty"`

	// PollInterval in milliseconds
	PollInterval int `yaml:"poll_interval" json:"poll_interval"`

	// Base RIT/XIT offsets in Hz
	RITOffset float64 `yaml:"rit_offset" json:"rit_offset"`
	XITOffset float64 `yaml:"xit_offset" json:"xit_offset"`

	AssignedCWKey string `yaml:"cw_key,omitempty" json:"cw_key,omitempty"`

	GetFreqInfo  bool `yaml:"get_freq" json:"get_freq"`
	GetModeInfo  bool `yaml:"get_mode" json:"get_mode"`
	GetVFOInfo   bool `yaml:"get_vfo" json:"get_vfo"`
	GetPTTInfo   bool `yaml:"get_ptt" json:"get_ptt"`
	GetPWRInfo   bool `yaml:"get_power" json:"get_power"`
	GetRITInfo   bool `yaml:"get_rit" json:"get_rit"`
	GetXITInfo   bool `yaml:"get_xit" json:"get_xit"`
	GetKeySpeed  bool `yaml:"get_keyspeed" json:"get_keyspeed"`
	KeySpeedSync bool `yaml:"keyspeed_sync" json:"keyspeed_sync"`
}

// Equal reports whether every field of p and o matches
func (p Profile) Equal(o Profile) bool {
	return p == o
}

// IsZero reports whether p is the empty "no profile selected" profile
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// HasCWKey reports whether a CW keyer is assigned to the profile
func (p Profile) HasCWKey() bool {
	return strings.TrimSpace(p.AssignedCWKey) != ""
}

// Poll returns the poll interval as a duration
func (p Profile) Poll() time.Duration {
	if p.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(p.PollInterval) * time.Millisecond
}

// Port returns the hardware port parameters of the profile
func (p Profile) Port() hardware.Port {
	transport := p.Transport
	if transport == "" {
		transport = hardware.TransportSerial
	}
	return hardware.Port{
		Transport:   transport,
		Hostname:    p.Hostname,
		NetPort:     p.NetPort,
		Path:        p.PortPath,
		BaudRate:    p.BaudRate,
		DataBits:    p.DataBits,
		StopBits:    p.StopBits,
		Parity:      p.Parity,
		FlowControl: p.FlowControl,
	}
}

// Provider supplies the currently selected profile
type Provider interface {
	Current() Profile
}
