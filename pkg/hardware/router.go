package hardware

import "github.com/dougsko/rigd/pkg/logging"

// Router dispatches each model to the backend able to drive it: the
// dummy model stays in process, the network relay model goes to
// rigctld, everything else to libhamlib when built in.
type Router struct {
	Dummy   Backend
	Rigctld Backend
	Hamlib  Backend // nil when not built with hamlib
}

// NewRouter creates a router with the default backends
func NewRouter() *Router {
	r := &Router{
		Dummy:   NewMockBackend(),
		Rigctld: NewRigctldBackend(),
	}
	if hl, err := NewHamlibBackend(); err == nil {
		r.Hamlib = hl
	} else {
		logging.Infof("hardware", "libhamlib backend unavailable (%v), serial rigs need rigctld", err)
	}
	return r
}

func (r *Router) backend(model Model) Backend {
	switch model {
	case ModelDummy:
		return r.Dummy
	case ModelNetRigctl:
		return r.Rigctld
	}
	return r.Hamlib
}

// Init initializes a handle on the backend serving model
func (r *Router) Init(model Model) (Handle, error) {
	b := r.backend(model)
	if b == nil {
		return nil, ErrNotAvailable
	}
	return b.Init(model)
}

// ModeName prefers libhamlib names when available
func (r *Router) ModeName(m Mode) string {
	if r.Hamlib != nil {
		if name := r.Hamlib.ModeName(m); name != "" {
			return name
		}
	}
	return m.String()
}

// ParseMode prefers the libhamlib parser when available
func (r *Router) ParseMode(name string) Mode {
	if r.Hamlib != nil {
		if m := r.Hamlib.ParseMode(name); m != ModeNone {
			return m
		}
	}
	return ParseMode(name)
}
