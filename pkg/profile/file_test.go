package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileFile = `
current: IC-7300
profiles:
  - name: IC-7300
    model: 3073
    port_path: /dev/ttyUSB0
    baud_rate: 115200
    data_bits: 8
    stop_bits: 1
    parity: none
    flow_control: none
    poll_interval: 500
    rit_offset: 0
    xit_offset: 0
    cw_key: winkeyer
    get_freq: true
    get_mode: true
    get_ptt: true
  - name: rigctld
    model: 2
    transport: network
    hostname: localhost
    net_port: 4532
    poll_interval: 1000
    get_freq: true
    get_mode: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(dir, "profiles.yaml")
		writeFile(t, path, profileFile)

		fp, err := NewFileProvider(path)
		require.NoError(t, err)

		cur := fp.Current()
		assert.Equal(t, "IC-7300", cur.Name)
		assert.Equal(t, hardware.Model(3073), cur.Model)
		assert.Equal(t, 115200, cur.BaudRate)
		assert.Equal(t, "winkeyer", cur.AssignedCWKey)
		assert.True(t, cur.GetPTTInfo)
		assert.False(t, cur.GetVFOInfo)
		assert.Len(t, fp.List(), 2)
		assert.Equal(t, hardware.TransportNetwork, fp.List()[1].Transport)
	})

	t.Run("Nothing Selected", func(t *testing.T) {
		path := filepath.Join(dir, "none.yaml")
		writeFile(t, path, "profiles:\n  - name: a\n    model: 1\n")

		fp, err := NewFileProvider(path)
		require.NoError(t, err)
		assert.True(t, fp.Current().IsZero())
	})

	t.Run("Unknown Selection", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "current: missing\nprofiles: []\n")

		_, err := NewFileProvider(path)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		writeFile(t, path, "current: [unterminated\n")

		_, err := NewFileProvider(path)
		assert.Error(t, err)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := NewFileProvider(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestFileProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	writeFile(t, path, profileFile)

	fp, err := NewFileProvider(path)
	require.NoError(t, err)

	writeFile(t, path, "current: broken\nprofiles: []\n")
	assert.Error(t, fp.Reload())
	assert.Equal(t, "IC-7300", fp.Current().Name, "failed reload keeps the selection")

	writeFile(t, path, "current: rigctld\nprofiles:\n  - name: rigctld\n    model: 2\n")
	require.NoError(t, fp.Reload())
	assert.Equal(t, "rigctld", fp.Current().Name)
}

func TestFileProviderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	writeFile(t, path, profileFile)

	fp, err := NewFileProvider(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fp.Watch(ctx) }()

	// Give the watcher time to register before changing the file
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "current: rigctld\nprofiles:\n  - name: rigctld\n    model: 2\n")

	assert.Eventually(t, func() bool {
		return fp.Current().Name == "rigctld"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
