package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/rigd/pkg/config"
	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/protocol"
)

const testProfiles = `
current: dummy
profiles:
  - name: dummy
    model: 1
    poll_interval: 50
    get_freq: true
    get_mode: true
    get_ptt: true
`

type testDaemon struct {
	*RigDaemon
	backend *hardware.MockBackend
}

func startDaemon(t *testing.T) *testDaemon {
	t.Helper()
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(testProfiles), 0644))

	cfg := config.Default()
	cfg.Profiles.Path = profilePath
	cfg.API.UnixSocket = filepath.Join(dir, "rigd.sock")
	cfg.Web.Port = 0
	cfg.Rig.SlowInterval = 50
	cfg.Rig.StartupInterval = 20
	cfg.Rig.SettleDelay = -1

	backend := hardware.NewMockBackend()
	d, err := NewRigDaemon(cfg, backend)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	require.Eventually(t, d.socketClient.IsConnected, 2*time.Second, 10*time.Millisecond)
	return &testDaemon{RigDaemon: d, backend: backend}
}

func (d *testDaemon) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)
	return rec
}

// status fetches GET /api/v1/rig. It does not fail the test itself so
// it can be polled from Eventually.
func (d *testDaemon) status(t *testing.T) protocol.Status {
	rec := d.do(t, http.MethodGet, "/api/v1/rig", "")
	var status protocol.Status
	if rec.Code == http.StatusOK {
		json.Unmarshal(rec.Body.Bytes(), &status)
	}
	return status
}

func TestDaemonRigAPI(t *testing.T) {
	d := startDaemon(t)

	assert.False(t, d.status(t).Connected)

	rec := d.do(t, http.MethodPost, "/api/v1/rig/open", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		s := d.status(t)
		return s.Connected && s.Frequency == 14074000
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "dummy", d.status(t).Profile)

	rec = d.do(t, http.MethodPut, "/api/v1/rig/frequency", `{"frequency": 7074000}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return d.backend.Rig.Frequency() == 7074000 }, 2*time.Second, 10*time.Millisecond)

	rec = d.do(t, http.MethodPut, "/api/v1/rig/ptt", `{"ptt": true}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, d.backend.Rig.PTT, 2*time.Second, 10*time.Millisecond)

	rec = d.do(t, http.MethodPut, "/api/v1/rig/mode", `{"mode": "CW"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return d.backend.Rig.Mode() == hardware.ModeCW }, 2*time.Second, 10*time.Millisecond)

	rec = d.do(t, http.MethodGet, "/api/v1/rig/modes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"USB"`)

	rec = d.do(t, http.MethodPost, "/api/v1/rig/close", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Eventually(t, func() bool { return !d.status(t).Connected }, 2*time.Second, 20*time.Millisecond)
}

func TestDaemonBadRequests(t *testing.T) {
	d := startDaemon(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPut, "/api/v1/rig/frequency", `{}`},
		{http.MethodPut, "/api/v1/rig/frequency", `{"frequency": -1}`},
		{http.MethodPut, "/api/v1/rig/ptt", `{}`},
		{http.MethodPut, "/api/v1/rig/mode", `{}`},
		{http.MethodPut, "/api/v1/rig/keyspeed", `{"wpm": -4}`},
		{http.MethodPost, "/api/v1/rig/morse", `{}`},
	} {
		rec := d.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s %s", tc.method, tc.path, tc.body)
	}
}

func TestDaemonProfiles(t *testing.T) {
	d := startDaemon(t)

	rec := d.do(t, http.MethodGet, "/api/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"dummy"`)

	// file backed profiles cannot be edited over HTTP
	rec = d.do(t, http.MethodPut, "/api/v1/profiles/current", `{"name": "dummy"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = d.do(t, http.MethodDelete, "/api/v1/profiles/dummy", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDaemonWebSocket(t *testing.T) {
	d := startDaemon(t)
	d.engine.Open()
	require.Eventually(t, func() bool { return d.status(t).Connected }, 2*time.Second, 20*time.Millisecond)

	srv := httptest.NewServer(d.router)
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// subscribing requests a full state resend, so the current
	// frequency arrives even though it has not changed
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "frequency" {
			assert.True(t, bytes.Contains(msg.Data, []byte(`"freq":14074000`)), string(msg.Data))
			return
		}
	}
}
