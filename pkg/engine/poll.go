package engine

import (
	"github.com/dougsko/rigd/pkg/hardware"
)

// tick is one poll of the rig. It sets e.interval to the delay before
// the next tick.
func (e *Engine) tick() {
	defer e.publish()
	defer func() { e.force = false }()

	if e.handle == nil {
		e.interval = e.opts.SlowInterval
		return
	}

	if !e.lock.TryLock(e.opts.LockWait) {
		e.log.Debug(component, "Handle busy, skipping poll")
		return
	}
	defer e.lock.Unlock()

	if current := e.profiles.Current(); !current.Equal(e.connected) {
		e.log.Infof(component, "Profile changed from %q to %q, reconnecting", e.connected.Name, current.Name)
		e.openRig()
		e.interval = e.opts.StartupInterval
		return
	}

	caps := e.handle.Caps()
	p := e.connected

	if p.GetPTTInfo && caps.GetPTT {
		e.pollPTT()
	}

	if p.GetFreqInfo && caps.GetFreq {
		if err := e.pollFrequency(); err != nil {
			e.fatal("Get Frequency Error", err)
			return
		}
	}

	if p.GetModeInfo && caps.GetMode {
		if err := e.pollMode(); err != nil {
			e.fatal("Get Mode Error", err)
			return
		}
	}

	if p.GetVFOInfo && caps.GetVFO {
		e.pollVFO()
	}

	if p.GetPWRInfo && caps.GetPower {
		e.pollPower()
	}

	if p.GetRITInfo && caps.GetRIT {
		e.pollRIT()
	}

	if p.GetXITInfo && caps.GetXIT {
		e.pollXIT()
	}

	if p.GetKeySpeed && caps.GetKeySpeed {
		e.pollKeySpeed()
	}

	e.interval = p.Poll()
}

// Get errors other than frequency and mode are not fatal. They are
// logged and the previous shadow value is kept.

func (e *Engine) pollPTT() {
	ptt, err := e.handle.GetPTT()
	if err != nil {
		e.log.Debugf(component, "Get PTT: %v", err)
		return
	}
	if ptt != e.lo.PTT || e.force {
		e.lo.PTT = ptt
		e.emit(PTTChanged{ID: e.lo.ID, PTT: ptt})
	}
}

func (e *Engine) pollFrequency() error {
	freq, err := e.handle.GetFreq()
	if err != nil {
		return err
	}
	if freq != e.lo.Freq || e.force {
		e.lo.Freq = freq
		e.emit(e.lo.frequencyEvent())
	}
	return nil
}

func (e *Engine) pollMode() error {
	mode, passband, err := e.handle.GetMode()
	if err != nil {
		return err
	}
	passbandChanged := passband != hardware.PassbandNoChange && passband != e.lo.Passband
	if mode != e.lo.Mode || passbandChanged || e.force {
		e.lo.Mode = mode
		if passband != hardware.PassbandNoChange {
			e.lo.Passband = passband
		}
		normalized, submode := NormalizeMode(mode)
		e.emit(ModeChanged{
			ID:       e.lo.ID,
			Raw:      e.backend.ModeName(mode),
			Mode:     normalized,
			Submode:  submode,
			Passband: e.lo.Passband,
		})
	}
	return nil
}

func (e *Engine) pollVFO() {
	vfo, err := e.handle.GetVFO()
	if err != nil {
		e.log.Debugf(component, "Get VFO: %v", err)
		return
	}
	if vfo != e.lo.VFO || e.force {
		e.lo.VFO = vfo
		e.emit(VFOChanged{ID: e.lo.ID, VFO: vfo.String()})
	}
}

func (e *Engine) pollPower() {
	mW, err := e.handle.GetPower()
	if err != nil {
		e.log.Debugf(component, "Get power: %v", err)
		return
	}
	if mW != e.lo.Power || e.force {
		e.lo.Power = mW
		e.emit(PowerChanged{ID: e.lo.ID, Watts: e.lo.Watts()})
	}
}

// readOffset returns the RIT or XIT offset, 0 while the function is off
// or the offset cannot be read. ok is false if the function state is
// unknown.
func (e *Engine) readOffset(f hardware.Func, get func() (int, error)) (offset float64, ok bool) {
	on, err := e.handle.GetFunc(f)
	if err != nil {
		e.log.Warnf(component, "Cannot get rig function %s: %v", f, err)
		return 0, false
	}
	if !on {
		return 0, true
	}
	hz, err := get()
	if err != nil {
		e.log.Warnf(component, "Cannot get %s: %v", f, err)
		return 0, true
	}
	return float64(hz), true
}

func (e *Engine) pollRIT() {
	rit, ok := e.readOffset(hardware.FuncRIT, e.handle.GetRIT)
	if !ok {
		return
	}
	if rit != e.lo.RXOffset || e.force {
		e.lo.RXOffset = rit
		e.emit(RITChanged{ID: e.lo.ID, Offset: rit})
		e.emit(e.lo.frequencyEvent())
	}
}

func (e *Engine) pollXIT() {
	xit, ok := e.readOffset(hardware.FuncXIT, e.handle.GetXIT)
	if !ok {
		return
	}
	if xit != e.lo.TXOffset || e.force {
		e.lo.TXOffset = xit
		e.emit(XITChanged{ID: e.lo.ID, Offset: xit})
		e.emit(e.lo.frequencyEvent())
	}
}

func (e *Engine) pollKeySpeed() {
	wpm, err := e.handle.GetKeySpeed()
	if err != nil {
		e.log.Debugf(component, "Get key speed: %v", err)
		return
	}
	if wpm != e.lo.KeySpeed || e.force {
		e.lo.KeySpeed = wpm
		e.emit(KeySpeedChanged{ID: e.lo.ID, WPM: wpm})
	}
}
