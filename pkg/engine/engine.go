// Package engine keeps a shadow copy of a transceiver's state in sync
// with the hardware. A single goroutine (Run) owns the rig handle: it
// polls the rig on a timer, executes queued commands and publishes
// change events to a Sink.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/logging"
	"github.com/dougsko/rigd/pkg/profile"
)

const component = "engine"

const (
	DefaultSlowInterval    = 2 * time.Second
	DefaultStartupInterval = 500 * time.Millisecond
	DefaultLockWait        = 200 * time.Millisecond
	DefaultSettleDelay     = 100 * time.Millisecond
	DefaultModesWait       = 2 * time.Second
)

// Options tunes the engine timing. Zero values select the defaults.
type Options struct {
	// SlowInterval is the poll interval while no rig is open
	SlowInterval time.Duration
	// StartupInterval is the poll interval right after a (re)connect or
	// a fatal error
	StartupInterval time.Duration
	// LockWait bounds how long a poll waits for the handle lock
	LockWait time.Duration
	// SettleDelay is held after each rig write before the next read.
	// A negative value disables it.
	SettleDelay time.Duration
	// ModesWait bounds how long AvailableModes waits for the handle lock
	ModesWait time.Duration

	Logger *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.SlowInterval <= 0 {
		o.SlowInterval = DefaultSlowInterval
	}
	if o.StartupInterval <= 0 {
		o.StartupInterval = DefaultStartupInterval
	}
	if o.LockWait <= 0 {
		o.LockWait = DefaultLockWait
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.ModesWait <= 0 {
		o.ModesWait = DefaultModesWait
	}
	if o.Logger == nil {
		o.Logger = logging.GetGlobalLogger()
	}
	return o
}

// Engine synchronizes one rig with its shadow state
type Engine struct {
	backend  hardware.Backend
	profiles profile.Provider
	sink     Sink
	opts     Options
	log      *logging.Logger

	mailbox *mailbox
	lock    handleLock

	// Owned by the Run goroutine. Hardware calls on handle are made
	// while holding lock.
	handle    hardware.Handle
	connected profile.Profile
	lo        Oscillator

	// Run goroutine only
	force    bool
	interval time.Duration

	snapMu sync.RWMutex
	snap   Snapshot
}

// Snapshot is a consistent view of the engine as of its last poll,
// command batch, open or close.
type Snapshot struct {
	State          Oscillator
	Profile        profile.Profile
	Connected      bool
	MorseSupported bool
}

// New creates an engine. Nothing touches the hardware until Run is
// started and Open is requested.
func New(backend hardware.Backend, profiles profile.Provider, sink Sink, opts Options) *Engine {
	opts = opts.withDefaults()
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	return &Engine{
		backend:  backend,
		profiles: profiles,
		sink:     sink,
		opts:     opts,
		log:      opts.Logger,
		mailbox:  newMailbox(),
		lock:     newHandleLock(),
		lo:       NewOscillator(VFO1),
		interval: opts.StartupInterval,
		snap:     Snapshot{State: NewOscillator(VFO1)},
	}
}

// Run services the poll timer and the command queue until ctx is done.
// An open rig is closed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info(component, "Rig engine started")

	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			e.log.Info(component, "Rig engine stopped")
			return nil
		case <-e.mailbox.notify:
			e.drainPending()
		case <-timer.C:
			e.tick()
			timer.Reset(e.interval)
		}
	}
}

func (e *Engine) shutdown() {
	// Commands still queued are dropped, they were never acknowledged.
	e.mailbox.take()
	if e.handle == nil {
		return
	}
	e.lock.Lock()
	e.closeRig(true)
	e.lock.Unlock()
}

// publish copies the shadow state for the accessors. Run goroutine only.
func (e *Engine) publish() {
	snap := Snapshot{
		State:     e.lo,
		Profile:   e.connected,
		Connected: e.handle != nil,
	}
	if e.handle != nil {
		snap.MorseSupported = e.handle.Caps().SendMorse
	}

	e.snapMu.Lock()
	e.snap = snap
	e.snapMu.Unlock()
}

func (e *Engine) emit(ev Event) {
	e.sink.Publish(ev)
}

func (e *Engine) emitError(title string, err error) {
	detail := ""
	if err != nil {
		detail = hardware.ErrorDetail(err)
	}
	e.log.Error(component, title, logging.Fields{"detail": detail})
	e.emit(Error{Title: title, Detail: detail})
}

// openRig replaces the current connection with one for the currently
// selected profile. The caller holds lock.
func (e *Engine) openRig() {
	e.closeRig(false)

	p := e.profiles.Current()
	if p.IsZero() {
		e.emitError("No profile selected", nil)
		return
	}

	log := e.log.WithFields(logging.Fields{"profile": p.Name, "model": int(p.Model)})
	log.Info(component, "Opening rig")

	h, err := e.backend.Init(p.Model)
	if err != nil {
		e.emitError("Initialization error", err)
		return
	}

	port := p.Port()
	if err := h.Open(port); err != nil {
		e.handle = h
		e.closeRig(true)
		e.emitError("Open connection error", err)
		return
	}

	e.handle = h
	e.connected = p
	e.lo.RXOffset = p.RITOffset
	e.lo.TXOffset = p.XITOffset

	log.Infof(component, "Connected to %s at %s", hardware.RigInfo(h), port.Pathname())
	e.publish()
	e.emit(Connected{Profile: p.Name})

	if p.HasCWKey() {
		e.emit(CWKeyOpenRequest{Key: p.AssignedCWKey})
	}
}

// closeRig releases the handle and resets the shadow state. Disconnected
// is emitted when notify is set or a handle was actually held. The caller
// holds lock.
func (e *Engine) closeRig(notify bool) {
	held := e.handle != nil

	if e.connected.HasCWKey() {
		e.emit(CWKeyCloseRequest{Key: e.connected.AssignedCWKey})
	}

	e.connected = profile.Profile{}
	e.lo.Clear()

	if e.handle != nil {
		if err := e.handle.Close(); err != nil {
			e.log.Warnf(component, "Closing rig: %v", err)
		}
		e.handle = nil
		e.log.Info(component, "Rig closed")
	}

	e.publish()
	if notify || held {
		e.emit(Disconnected{})
	}
}

// fatal reports a runtime error that invalidates the connection and
// closes the rig. The caller holds lock.
func (e *Engine) fatal(title string, err error) {
	e.emitError(title, err)
	e.closeRig(true)
	e.interval = e.opts.StartupInterval
}

func (e *Engine) settle() {
	if e.opts.SettleDelay > 0 {
		time.Sleep(e.opts.SettleDelay)
	}
}

// Snapshot returns the engine state as last published by Run. It never
// waits on rig I/O.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap
}

// State returns a copy of the shadow state
func (e *Engine) State() Oscillator {
	return e.Snapshot().State
}

// Connected returns the profile of the open rig and whether a rig is open
func (e *Engine) Connected() (profile.Profile, bool) {
	snap := e.Snapshot()
	return snap.Profile, snap.Connected
}

// MorseSupported reports whether the open rig can send CW text
func (e *Engine) MorseSupported() bool {
	return e.Snapshot().MorseSupported
}
