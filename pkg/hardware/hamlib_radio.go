//go:build cgo && hamlib

package hardware

/*
#cgo pkg-config: hamlib
#include <hamlib/rig.h>
#include <stdlib.h>
#include <stdint.h>

static int set_conf(RIG *rig, const char *name, const char *val) {
    token_t token = rig_token_lookup(rig, name);
    if (token == RIG_CONF_END) {
        return -RIG_EINVAL;
    }
    return rig_set_conf(rig, token, val);
}

static int can_get_freq(RIG *rig) { return rig->caps->get_freq != NULL; }
static int can_get_mode(RIG *rig) { return rig->caps->get_mode != NULL; }
static int can_get_vfo(RIG *rig)  { return rig->caps->get_vfo != NULL; }
static int can_send_morse(RIG *rig) { return rig->caps->send_morse != NULL; }

static int can_get_ptt(RIG *rig) {
    return rig->caps->get_ptt != NULL
        && (rig->caps->ptt_type == RIG_PTT_RIG || rig->caps->ptt_type == RIG_PTT_RIG_MICDATA);
}

static int can_get_power(RIG *rig) {
    return rig_has_get_level(rig, RIG_LEVEL_RFPOWER) != 0 && rig->caps->power2mW != NULL;
}

static int can_get_rit(RIG *rig) {
    return rig->caps->get_rit != NULL && rig_has_get_func(rig, RIG_FUNC_RIT) != 0;
}

static int can_get_xit(RIG *rig) {
    return rig->caps->get_xit != NULL && rig_has_get_func(rig, RIG_FUNC_XIT) != 0;
}

static int can_get_keyspd(RIG *rig) { return rig_has_get_level(rig, RIG_LEVEL_KEYSPD) != 0; }

static uint64_t mode_list(RIG *rig) { return (uint64_t)rig->state.mode_list; }

static int get_power_mw(RIG *rig, unsigned int *mw) {
    value_t v;
    freq_t freq;
    rmode_t mode;
    pbwidth_t width;
    int status = rig_get_level(rig, RIG_VFO_CURR, RIG_LEVEL_RFPOWER, &v);
    if (status != RIG_OK) return status;
    status = rig_get_freq(rig, RIG_VFO_CURR, &freq);
    if (status != RIG_OK) return status;
    status = rig_get_mode(rig, RIG_VFO_CURR, &mode, &width);
    if (status != RIG_OK) return status;
    return rig_power2mW(rig, mw, v.f, freq, mode);
}

static int get_keyspd(RIG *rig, int *wpm) {
    value_t v;
    int status = rig_get_level(rig, RIG_VFO_CURR, RIG_LEVEL_KEYSPD, &v);
    *wpm = v.i;
    return status;
}

static int set_keyspd(RIG *rig, int wpm) {
    value_t v;
    v.i = wpm;
    return rig_set_level(rig, RIG_VFO_CURR, RIG_LEVEL_KEYSPD, v);
}
*/
import "C"

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/dougsko/rigd/pkg/verbose"
)

func init() {
	if verbose.IsEnabled() {
		C.rig_set_debug(C.RIG_DEBUG_VERBOSE)
	} else {
		C.rig_set_debug(C.RIG_DEBUG_BUG)
	}
}

// HamlibBackend drives rigs through libhamlib
type HamlibBackend struct{}

// NewHamlibBackend creates a libhamlib backend
func NewHamlibBackend() (*HamlibBackend, error) {
	return &HamlibBackend{}, nil
}

// Init calls rig_init for model
func (b *HamlibBackend) Init(model Model) (Handle, error) {
	rig := C.rig_init(C.rig_model_t(model))
	if rig == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, model)
	}
	return &HamlibRig{rig: rig, model: model}, nil
}

// ModeName is rig_strrmode
func (b *HamlibBackend) ModeName(m Mode) string {
	return C.GoString(C.rig_strrmode(C.rmode_t(m)))
}

// ParseMode is rig_parse_mode
func (b *HamlibBackend) ParseMode(name string) Mode {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return Mode(C.rig_parse_mode(cs))
}

// HamlibRig is a handle on a libhamlib RIG
type HamlibRig struct {
	rig    *C.RIG
	model  Model
	opened bool
}

func (r *HamlibRig) Caps() Caps {
	if r.rig == nil {
		return Caps{Model: r.model}
	}
	return Caps{
		Model:        r.model,
		ModelName:    C.GoString(r.rig.caps.model_name),
		Manufacturer: C.GoString(r.rig.caps.mfg_name),
		GetFreq:      C.can_get_freq(r.rig) != 0,
		GetMode:      C.can_get_mode(r.rig) != 0,
		GetVFO:       C.can_get_vfo(r.rig) != 0,
		GetPTT:       C.can_get_ptt(r.rig) != 0,
		GetPower:     C.can_get_power(r.rig) != 0,
		GetRIT:       C.can_get_rit(r.rig) != 0,
		GetXIT:       C.can_get_xit(r.rig) != 0,
		GetKeySpeed:  C.can_get_keyspd(r.rig) != 0,
		SendMorse:    C.can_send_morse(r.rig) != 0,
		Modes:        Mode(C.mode_list(r.rig)),
	}
}

func (r *HamlibRig) setConf(name, value string) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))

	if ret := C.set_conf(r.rig, cname, cvalue); ret != C.RIG_OK {
		verbose.Printf("Hamlib: failed to set %s=%s (%s)", name, value, C.GoString(C.rigerror(ret)))
	}
}

// Open applies the port with rig_set_conf and calls rig_open
func (r *HamlibRig) Open(port Port) error {
	r.setConf("rig_pathname", port.Pathname())
	if port.Transport == TransportSerial {
		if port.BaudRate > 0 {
			r.setConf("serial_speed", strconv.Itoa(port.BaudRate))
		}
		if port.DataBits > 0 {
			r.setConf("data_bits", strconv.Itoa(port.DataBits))
		}
		if port.StopBits > 0 {
			r.setConf("stop_bits", strconv.Itoa(port.StopBits))
		}
		r.setConf("serial_parity", parityConf(port.Parity))
		r.setConf("serial_handshake", handshakeConf(port.FlowControl))
	}

	if err := codeToError(C.rig_open(r.rig)); err != nil {
		return err
	}
	r.opened = true
	return nil
}

// Close is rig_close followed by rig_cleanup
func (r *HamlibRig) Close() error {
	if r.rig == nil {
		return nil
	}
	if r.opened {
		C.rig_close(r.rig)
		r.opened = false
	}
	C.rig_cleanup(r.rig)
	r.rig = nil
	return nil
}

func (r *HamlibRig) GetFreq() (float64, error) {
	var freq C.freq_t
	err := codeToError(C.rig_get_freq(r.rig, C.RIG_VFO_CURR, &freq))
	return float64(freq), err
}

func (r *HamlibRig) GetMode() (Mode, int, error) {
	var mode C.rmode_t
	var width C.pbwidth_t
	err := codeToError(C.rig_get_mode(r.rig, C.RIG_VFO_CURR, &mode, &width))
	return Mode(mode), int(width), err
}

func (r *HamlibRig) GetVFO() (VFO, error) {
	var vfo C.vfo_t
	if err := codeToError(C.rig_get_vfo(r.rig, &vfo)); err != nil {
		return VFONone, err
	}
	return ParseVFO(C.GoString(C.rig_strvfo(vfo))), nil
}

func (r *HamlibRig) GetPTT() (bool, error) {
	var ptt C.ptt_t
	err := codeToError(C.rig_get_ptt(r.rig, C.RIG_VFO_CURR, &ptt))
	return ptt != C.RIG_PTT_OFF, err
}

func (r *HamlibRig) GetPower() (uint32, error) {
	var mw C.uint
	err := codeToError(C.get_power_mw(r.rig, &mw))
	return uint32(mw), err
}

func (r *HamlibRig) GetFunc(f Func) (bool, error) {
	var fn C.setting_t
	switch f {
	case FuncRIT:
		fn = C.RIG_FUNC_RIT
	case FuncXIT:
		fn = C.RIG_FUNC_XIT
	default:
		return false, NewRigError(StatusInvalid)
	}
	var status C.int
	err := codeToError(C.rig_get_func(r.rig, C.RIG_VFO_CURR, fn, &status))
	return status != 0, err
}

func (r *HamlibRig) GetRIT() (int, error) {
	var rit C.shortfreq_t
	err := codeToError(C.rig_get_rit(r.rig, C.RIG_VFO_CURR, &rit))
	return int(rit), err
}

func (r *HamlibRig) GetXIT() (int, error) {
	var xit C.shortfreq_t
	err := codeToError(C.rig_get_xit(r.rig, C.RIG_VFO_CURR, &xit))
	return int(xit), err
}

func (r *HamlibRig) GetKeySpeed() (int, error) {
	var wpm C.int
	err := codeToError(C.get_keyspd(r.rig, &wpm))
	return int(wpm), err
}

func (r *HamlibRig) SetFreq(hz float64) error {
	return codeToError(C.rig_set_freq(r.rig, C.RIG_VFO_CURR, C.freq_t(hz)))
}

func (r *HamlibRig) SetMode(m Mode, passband int) error {
	return codeToError(C.rig_set_mode(r.rig, C.RIG_VFO_CURR, C.rmode_t(m), C.pbwidth_t(passband)))
}

func (r *HamlibRig) SetPTT(on bool) error {
	ptt := C.ptt_t(C.RIG_PTT_OFF)
	if on {
		ptt = C.RIG_PTT_ON
	}
	return codeToError(C.rig_set_ptt(r.rig, C.RIG_VFO_CURR, ptt))
}

func (r *HamlibRig) SetKeySpeed(wpm int) error {
	return codeToError(C.set_keyspd(r.rig, C.int(wpm)))
}

func (r *HamlibRig) SendMorse(text string) error {
	cs := C.CString(text)
	defer C.free(unsafe.Pointer(cs))
	return codeToError(C.rig_send_morse(r.rig, C.RIG_VFO_CURR, cs))
}

func (r *HamlibRig) StopMorse() error {
	return codeToError(C.rig_stop_morse(r.rig, C.RIG_VFO_CURR))
}

func codeToError(code C.int) error {
	if code == C.RIG_OK {
		return nil
	}
	return &RigError{Code: int(code), Msg: ErrorDetail(fmt.Errorf("%s", C.GoString(C.rigerror(code))))}
}
