package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command represents a command sent to the rig daemon
type Command struct {
	Type string                 `json:"type"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Response represents a response from the rig daemon
type Response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Status is a snapshot of the connection and the shadow state
type Status struct {
	Connected      bool      `json:"connected"`
	Profile        string    `json:"profile,omitempty"`
	Frequency      float64   `json:"frequency"`
	RITFrequency   float64   `json:"rit_frequency"`
	XITFrequency   float64   `json:"xit_frequency"`
	RawMode        string    `json:"raw_mode,omitempty"`
	Mode           string    `json:"mode"`
	Submode        string    `json:"submode,omitempty"`
	Passband       int       `json:"passband"`
	VFO            string    `json:"vfo,omitempty"`
	PTT            bool      `json:"ptt"`
	Watts          float64   `json:"watts"`
	RITOffset      float64   `json:"rit_offset"`
	XITOffset      float64   `json:"xit_offset"`
	KeySpeed       int       `json:"keyspeed"`
	MorseSupported bool      `json:"morse_supported"`
	Uptime         string    `json:"uptime"`
	StartTime      time.Time `json:"start_time"`
	Version        string    `json:"version"`
}

// ParseCommand parses a text command into a Command struct
//
//	FREQUENCY:14074000
//	MODE:USB DATA
//	PTT:1
//	MORSE:CQ CQ DE N0CALL
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}
	parts := strings.SplitN(text, ":", 2)

	cmd := &Command{
		Type: strings.ToUpper(strings.TrimSpace(parts[0])),
		Args: make(map[string]interface{}),
	}

	if len(parts) > 1 {
		args := strings.TrimSpace(parts[1])

		switch cmd.Type {
		case CmdFrequency:
			cmd.Args["frequency"] = args

		case CmdMode:
			modeParts := strings.Fields(args)
			if len(modeParts) >= 1 {
				cmd.Args["mode"] = modeParts[0]
			}
			if len(modeParts) >= 2 {
				cmd.Args["submode"] = modeParts[1]
			}

		case CmdRawMode:
			cmd.Args["mode"] = args

		case CmdPTT:
			cmd.Args["ptt"] = args

		case CmdKeySpeed, CmdSyncKeySpeed:
			cmd.Args["wpm"] = args

		case CmdMorse:
			// keep inner spacing, the rig sends it verbatim
			cmd.Args["text"] = strings.TrimLeft(parts[1], " ")
		}
	}

	return cmd, nil
}

// Arg returns the named argument, "" if absent
func (c *Command) Arg(key string) string {
	v, _ := c.Args[key].(string)
	return v
}

// Float parses the named argument as a number
func (c *Command) Float(key string) (float64, error) {
	v, ok := c.Args[key].(string)
	if !ok || v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}

// Int parses the named argument as an integer
func (c *Command) Int(key string) (int, error) {
	v, ok := c.Args[key].(string)
	if !ok || v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// Bool parses the named argument as on/off
func (c *Command) Bool(key string) (bool, error) {
	v, ok := c.Args[key].(string)
	if !ok || v == "" {
		return false, fmt.Errorf("missing %s", key)
	}
	switch strings.ToLower(v) {
	case "1", "on", "true", "tx":
		return true, nil
	case "0", "off", "false", "rx":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s %q", key, v)
}

// String converts a Response to its JSON line form
func (r *Response) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// NewSuccessResponse creates a successful response
func NewSuccessResponse(data map[string]interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// Protocol commands
const (
	CmdStatus       = "STATUS"
	CmdOpen         = "OPEN"
	CmdClose        = "CLOSE"
	CmdFrequency    = "FREQUENCY"
	CmdMode         = "MODE"
	CmdRawMode      = "RAWMODE"
	CmdPTT          = "PTT"
	CmdKeySpeed     = "KEYSPEED"
	CmdSyncKeySpeed = "SYNCKEYSPEED"
	CmdMorse        = "MORSE"
	CmdStopMorse    = "STOPMORSE"
	CmdModes        = "MODES"
	CmdResend       = "RESEND"
	CmdPing         = "PING"
	CmdQuit         = "QUIT"
)
