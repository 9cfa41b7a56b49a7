//go:build !cgo || !hamlib

package hardware

// HamlibBackend is only available when built with cgo and the 'hamlib' tag
type HamlibBackend struct{}

// NewHamlibBackend is here for compatibility (use build tag 'hamlib').
func NewHamlibBackend() (*HamlibBackend, error) { return nil, ErrNotAvailable }

func (b *HamlibBackend) Init(model Model) (Handle, error) { return nil, ErrNotAvailable }
func (b *HamlibBackend) ModeName(m Mode) string           { return m.String() }
func (b *HamlibBackend) ParseMode(name string) Mode       { return ParseMode(name) }
