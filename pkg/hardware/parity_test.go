package hardware

import "testing"

func TestSerialConf(t *testing.T) {
	parity := map[string]string{
		"":      "None",
		"none":  "None",
		"Odd":   "Odd",
		"even":  "Even",
		"MARK":  "Mark",
		"space": "Space",
	}
	for in, want := range parity {
		if got := parityConf(in); got != want {
			t.Errorf("parityConf(%q) = %q, want %q", in, got, want)
		}
	}

	handshake := map[string]string{
		"":         "None",
		"hardware": "Hardware",
		"RTSCTS":   "Hardware",
		"software": "XONXOFF",
		"xonxoff":  "XONXOFF",
	}
	for in, want := range handshake {
		if got := handshakeConf(in); got != want {
			t.Errorf("handshakeConf(%q) = %q, want %q", in, got, want)
		}
	}
}
