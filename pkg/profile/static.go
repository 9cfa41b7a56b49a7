package profile

import "sync"

// Static is a Provider holding a single, replaceable profile
type Static struct {
	mu      sync.RWMutex
	profile Profile
}

// NewStatic creates a provider selecting p
func NewStatic(p Profile) *Static {
	return &Static{profile: p}
}

// Current returns the selected profile
func (s *Static) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Set replaces the selected profile
func (s *Static) Set(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}
