package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dougsko/rigd/pkg/protocol"
)

// SocketClient talks to rigd over its unix socket
type SocketClient struct {
	socketPath string
	timeout    time.Duration
}

// NewSocketClient creates a new socket client
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SendCommand sends a command and returns the response
func (c *SocketClient) SendCommand(cmd string) (*protocol.Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, fmt.Errorf("send error: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return nil, fmt.Errorf("no response received")
	}

	var response protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &response, nil
}

// do sends cmd and turns a failed response into an error
func (c *SocketClient) do(cmd string) (*protocol.Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		name, _, _ := strings.Cut(cmd, ":")
		return nil, fmt.Errorf("%s error: %s", strings.ToLower(name), resp.Error)
	}
	return resp, nil
}

// decode re-encodes a response field into v
func decode(resp *protocol.Response, key string, v interface{}) error {
	data, ok := resp.Data[key]
	if !ok {
		return fmt.Errorf("%s not found in response", key)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

// GetStatus gets the current rig status
func (c *SocketClient) GetStatus() (*protocol.Status, error) {
	resp, err := c.do(protocol.CmdStatus)
	if err != nil {
		return nil, err
	}
	var status protocol.Status
	if err := decode(resp, "status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Modes lists the modes of the selected profile's rig
func (c *SocketClient) Modes() ([]string, error) {
	resp, err := c.do(protocol.CmdModes)
	if err != nil {
		return nil, err
	}
	var modes []string
	if err := decode(resp, "modes", &modes); err != nil {
		return nil, err
	}
	return modes, nil
}

func (c *SocketClient) Open() error {
	_, err := c.do(protocol.CmdOpen)
	return err
}

func (c *SocketClient) Close() error {
	_, err := c.do(protocol.CmdClose)
	return err
}

// Resend asks the daemon to report the full state on its next poll
func (c *SocketClient) Resend() error {
	_, err := c.do(protocol.CmdResend)
	return err
}

// SetFrequency sets the dial frequency in Hz
func (c *SocketClient) SetFrequency(hz float64) error {
	_, err := c.do(fmt.Sprintf("%s:%.0f", protocol.CmdFrequency, hz))
	return err
}

// SetMode sets a normalized mode, e.g. ("SSB", "USB")
func (c *SocketClient) SetMode(mode, submode string) error {
	_, err := c.do(strings.TrimSpace(fmt.Sprintf("%s:%s %s", protocol.CmdMode, mode, submode)))
	return err
}

// SetRawMode sets a rig mode by its hamlib name, e.g. "PKTUSB"
func (c *SocketClient) SetRawMode(name string) error {
	_, err := c.do(fmt.Sprintf("%s:%s", protocol.CmdRawMode, name))
	return err
}

func (c *SocketClient) SetPTT(on bool) error {
	v := 0
	if on {
		v = 1
	}
	_, err := c.do(fmt.Sprintf("%s:%d", protocol.CmdPTT, v))
	return err
}

func (c *SocketClient) SetKeySpeed(wpm int) error {
	_, err := c.do(fmt.Sprintf("%s:%d", protocol.CmdKeySpeed, wpm))
	return err
}

func (c *SocketClient) SyncKeySpeed(wpm int) error {
	_, err := c.do(fmt.Sprintf("%s:%d", protocol.CmdSyncKeySpeed, wpm))
	return err
}

// SendMorse keys text as CW
func (c *SocketClient) SendMorse(text string) error {
	_, err := c.do(fmt.Sprintf("%s:%s", protocol.CmdMorse, text))
	return err
}

func (c *SocketClient) StopMorse() error {
	_, err := c.do(protocol.CmdStopMorse)
	return err
}

// Ping tests the connection
func (c *SocketClient) Ping() error {
	_, err := c.do(protocol.CmdPing)
	return err
}

// IsConnected tests if the daemon is reachable
func (c *SocketClient) IsConnected() bool {
	return c.Ping() == nil
}
