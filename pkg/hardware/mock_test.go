package hardware

import (
	"errors"
	"testing"
)

func TestMockRig(t *testing.T) {
	backend := NewMockBackend()
	rig := backend.Rig

	t.Run("Init Rejects Other Models", func(t *testing.T) {
		_, err := backend.Init(ModelNetRigctl)
		if !errors.Is(err, ErrUnknownModel) {
			t.Errorf("Expected ErrUnknownModel, got: %v", err)
		}
	})

	h, err := backend.Init(ModelDummy)
	if err != nil {
		t.Fatalf("Failed to init dummy rig: %v", err)
	}

	t.Run("Calls Before Open", func(t *testing.T) {
		if _, err := h.GetFreq(); !errors.Is(err, ErrNotOpen) {
			t.Errorf("Expected ErrNotOpen, got: %v", err)
		}
		if err := h.SetPTT(true); !errors.Is(err, ErrNotOpen) {
			t.Errorf("Expected ErrNotOpen, got: %v", err)
		}
	})

	t.Run("Open", func(t *testing.T) {
		if err := h.Open(Port{Transport: TransportSerial, Path: "/dev/null"}); err != nil {
			t.Fatalf("Failed to open: %v", err)
		}
		if rig.OpenHandles() != 1 {
			t.Errorf("Expected 1 open handle, got %d", rig.OpenHandles())
		}
		if backend.Inits() != 2 {
			t.Errorf("Expected 2 inits, got %d", backend.Inits())
		}
	})

	t.Run("Front Panel Changes", func(t *testing.T) {
		rig.SetFrequency(7074000)
		rig.SetMode(ModeLSB, 2700)
		rig.SetVFO(VFOB)
		rig.SetRIT(true, -120)

		freq, err := h.GetFreq()
		if err != nil || freq != 7074000 {
			t.Errorf("Expected 7074000, got %v (%v)", freq, err)
		}
		mode, passband, err := h.GetMode()
		if err != nil || mode != ModeLSB || passband != 2700 {
			t.Errorf("Expected LSB/2700, got %v/%d (%v)", mode, passband, err)
		}
		vfo, _ := h.GetVFO()
		if vfo != VFOB {
			t.Errorf("Expected VFOB, got %v", vfo)
		}
		on, _ := h.GetFunc(FuncRIT)
		rit, _ := h.GetRIT()
		if !on || rit != -120 {
			t.Errorf("Expected RIT on at -120, got %v at %d", on, rit)
		}
	})

	t.Run("Set Mode Keeps Passband", func(t *testing.T) {
		if err := h.SetMode(ModeCW, PassbandNoChange); err != nil {
			t.Fatalf("Failed to set mode: %v", err)
		}
		mode, passband, _ := h.GetMode()
		if mode != ModeCW || passband != 2700 {
			t.Errorf("Expected CW/2700, got %v/%d", mode, passband)
		}
	})

	t.Run("Failure Injection", func(t *testing.T) {
		injected := NewRigError(StatusTimeout)
		rig.Fail(OpGetPTT, injected)

		before := rig.Calls(OpGetPTT)
		if _, err := h.GetPTT(); err != injected {
			t.Errorf("Expected injected error, got: %v", err)
		}
		if rig.Calls(OpGetPTT) != before+1 {
			t.Errorf("Expected failed call to be counted")
		}

		rig.Fail(OpGetPTT, nil)
		if _, err := h.GetPTT(); err != nil {
			t.Errorf("Expected no error after clearing, got: %v", err)
		}
	})

	t.Run("Morse", func(t *testing.T) {
		h.SendMorse("CQ")
		h.SendMorse("TEST")
		morse := rig.Morse()
		if len(morse) != 2 || morse[0] != "CQ" || morse[1] != "TEST" {
			t.Errorf("Unexpected morse log: %v", morse)
		}
	})

	t.Run("Close", func(t *testing.T) {
		if err := h.Close(); err != nil {
			t.Errorf("Expected no error, got: %v", err)
		}
		if err := h.Close(); err != nil {
			t.Errorf("Expected second close to succeed, got: %v", err)
		}
		if rig.OpenHandles() != 0 {
			t.Errorf("Expected 0 open handles, got %d", rig.OpenHandles())
		}
	})
}

func TestMockBackendInitError(t *testing.T) {
	backend := NewMockBackend()
	backend.InitErr = NewRigError(StatusConfig)

	if _, err := backend.Init(ModelDummy); err == nil {
		t.Error("Expected init error")
	}
}
