package main

import (
	"testing"

	"github.com/dougsko/rigd/pkg/config"
)

func TestApplyFlags(t *testing.T) {
	saved := fOptions
	defer func() { fOptions = saved }()

	t.Run("Overrides", func(t *testing.T) {
		fOptions.SocketPath = "/run/rigd.sock"
		fOptions.Listen = "0.0.0.0:9000"
		fOptions.Profile = "FT-991A"
		fOptions.Open = true

		cfg := config.Default()
		if err := applyFlags(cfg); err != nil {
			t.Fatalf("applyFlags failed: %v", err)
		}
		if cfg.API.UnixSocket != "/run/rigd.sock" {
			t.Errorf("Expected socket override, got %q", cfg.API.UnixSocket)
		}
		if cfg.WebAddr() != ":9000" {
			t.Errorf("Expected web addr ':9000', got %q", cfg.WebAddr())
		}
		if cfg.Profiles.Current != "FT-991A" || !cfg.Rig.AutoOpen {
			t.Errorf("Unexpected config: %+v", cfg.Profiles)
		}
	})

	t.Run("Bad Listen", func(t *testing.T) {
		fOptions = saved
		for _, addr := range []string{"localhost", "localhost:http"} {
			fOptions.Listen = addr
			if err := applyFlags(config.Default()); err == nil {
				t.Errorf("Expected error for %q", addr)
			}
		}
	})

	t.Run("No Flags", func(t *testing.T) {
		fOptions = saved
		cfg := config.Default()
		if err := applyFlags(cfg); err != nil {
			t.Fatalf("applyFlags failed: %v", err)
		}
		if cfg.WebAddr() != config.Default().WebAddr() {
			t.Errorf("Config changed without flags: %q", cfg.WebAddr())
		}
	})
}
