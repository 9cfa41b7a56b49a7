package hardware

import "strings"

// Mode is a raw rig mode. Values are hamlib rmode_t bits so they can be
// combined into a supported-modes bitmask.
type Mode uint64

const (
	ModeNone    Mode = 0
	ModeAM      Mode = 1 << 0
	ModeCW      Mode = 1 << 1
	ModeUSB     Mode = 1 << 2
	ModeLSB     Mode = 1 << 3
	ModeRTTY    Mode = 1 << 4
	ModeFM      Mode = 1 << 5
	ModeWFM     Mode = 1 << 6
	ModeCWR     Mode = 1 << 7
	ModeRTTYR   Mode = 1 << 8
	ModeAMS     Mode = 1 << 9
	ModePKTLSB  Mode = 1 << 10
	ModePKTUSB  Mode = 1 << 11
	ModePKTFM   Mode = 1 << 12
	ModeECSSUSB Mode = 1 << 13
	ModeECSSLSB Mode = 1 << 14
	ModeFAX     Mode = 1 << 15
	ModeSAM     Mode = 1 << 16
	ModeSAL     Mode = 1 << 17
	ModeSAH     Mode = 1 << 18
	ModeDSB     Mode = 1 << 19
	ModeFMN     Mode = 1 << 21
	ModePKTAM   Mode = 1 << 22

	// ModeSSB is both sidebands, used in bitmasks only
	ModeSSB = ModeUSB | ModeLSB

	// ModeBits is the number of usable bits in a Mode bitmask
	ModeBits = 63
)

var modeNames = map[Mode]string{
	ModeAM:      "AM",
	ModeCW:      "CW",
	ModeUSB:     "USB",
	ModeLSB:     "LSB",
	ModeRTTY:    "RTTY",
	ModeFM:      "FM",
	ModeWFM:     "WFM",
	ModeCWR:     "CWR",
	ModeRTTYR:   "RTTYR",
	ModeAMS:     "AMS",
	ModePKTLSB:  "PKTLSB",
	ModePKTUSB:  "PKTUSB",
	ModePKTFM:   "PKTFM",
	ModeECSSUSB: "ECSSUSB",
	ModeECSSLSB: "ECSSLSB",
	ModeFAX:     "FAX",
	ModeSAM:     "SAM",
	ModeSAL:     "SAL",
	ModeSAH:     "SAH",
	ModeDSB:     "DSB",
	ModeFMN:     "FMN",
	ModePKTAM:   "PKTAM",
}

// String returns the hamlib name of a single mode bit ("" if unknown)
func (m Mode) String() string {
	return modeNames[m]
}

// ParseMode returns the mode for a hamlib mode name, ModeNone if unknown
func ParseMode(name string) Mode {
	name = strings.ToUpper(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == name {
			return m
		}
	}
	return ModeNone
}

// Each calls fn for every bit set in the mask, lowest bit first
func (m Mode) Each(fn func(Mode)) {
	for i := 0; i < ModeBits; i++ {
		if bit := Mode(1) << i; m&bit != 0 {
			fn(bit)
		}
	}
}

// AllModes is every mode known by name
func AllModes() Mode {
	var all Mode
	for m := range modeNames {
		all |= m
	}
	return all
}

// VFO identifies a rig VFO
type VFO int

const (
	VFONone VFO = iota
	VFOA
	VFOB
	VFOC
	VFOCurrent
	VFOMain
	VFOSub
	VFOMem
)

var vfoNames = map[VFO]string{
	VFONone:    "None",
	VFOA:       "VFOA",
	VFOB:       "VFOB",
	VFOC:       "VFOC",
	VFOCurrent: "currVFO",
	VFOMain:    "Main",
	VFOSub:     "Sub",
	VFOMem:     "MEM",
}

func (v VFO) String() string {
	if s, ok := vfoNames[v]; ok {
		return s
	}
	return "None"
}

// ParseVFO returns the VFO for a hamlib VFO name, VFONone if unknown
func ParseVFO(name string) VFO {
	name = strings.TrimSpace(name)
	for v, n := range vfoNames {
		if strings.EqualFold(n, name) {
			return v
		}
	}
	return VFONone
}
