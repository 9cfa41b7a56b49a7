package hardware

import "strings"

// parityConf maps a profile parity setting to the hamlib conf value
func parityConf(parity string) string {
	switch strings.ToLower(parity) {
	case "odd":
		return "Odd"
	case "even":
		return "Even"
	case "mark":
		return "Mark"
	case "space":
		return "Space"
	}
	return "None"
}

// handshakeConf maps a profile flow control setting to the hamlib conf value
func handshakeConf(flow string) string {
	switch strings.ToLower(flow) {
	case "hardware", "rtscts":
		return "Hardware"
	case "software", "xonxoff":
		return "XONXOFF"
	}
	return "None"
}
