package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dougsko/rigd/pkg/logging"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

// File is the on-disk profile document
//
//	current: IC-7300
//	profiles:
//	  - name: IC-7300
//	    model: 3073
//	    port_path: /dev/ttyUSB0
type File struct {
	Current  string    `yaml:"current"`
	Profiles []Profile `yaml:"profiles"`
}

// Select returns the profile named by Current, the zero Profile if there
// is none.
func (f File) Select() Profile {
	if f.Current == "" {
		return Profile{}
	}
	for _, p := range f.Profiles {
		if p.Name == f.Current {
			return p
		}
	}
	return Profile{}
}

// FileProvider serves the selected profile from a YAML file. Reload
// re-reads the file and Watch reloads it whenever it changes on disk.
type FileProvider struct {
	path string

	mu      sync.RWMutex
	file    File
	current Profile
}

// NewFileProvider loads the profile file at path
func NewFileProvider(path string) (*FileProvider, error) {
	fp := &FileProvider{path: path}
	if err := fp.Reload(); err != nil {
		return nil, err
	}
	return fp, nil
}

// LoadFile reads and parses a profile file
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read profile file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if f.Current != "" && f.Select().IsZero() {
		return File{}, fmt.Errorf("%w: %s", ErrNotFound, f.Current)
	}
	return f, nil
}

// Reload re-reads the profile file. On error the previous selection is kept.
func (fp *FileProvider) Reload() error {
	f, err := LoadFile(fp.path)
	if err != nil {
		return err
	}

	fp.mu.Lock()
	fp.file = f
	fp.current = f.Select()
	fp.mu.Unlock()
	return nil
}

// Current returns the selected profile
func (fp *FileProvider) Current() Profile {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.current
}

// List returns the profiles in the file
func (fp *FileProvider) List() []Profile {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return append([]Profile(nil), fp.file.Profiles...)
}

// Watch reloads the file whenever it changes until ctx is done. The
// directory is watched rather than the file so editors that replace the
// file on save are followed.
func (fp *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(fp.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fp.path, err)
	}

	name := filepath.Clean(fp.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			drainUntilSilence(watcher, 100*time.Millisecond)
			if err := fp.Reload(); err != nil {
				logging.Warnf("profile", "Reload of %s failed: %v", fp.path, err)
				continue
			}
			logging.Infof("profile", "Reloaded %s, current profile %q", fp.path, fp.Current().Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("profile", "Watcher error: %v", err)
		}
	}
}

// drainUntilSilence swallows watcher events until none arrive for silenceDur
func drainUntilSilence(w *fsnotify.Watcher, silenceDur time.Duration) {
	timer := time.NewTimer(silenceDur)
	defer timer.Stop()
	for {
		select {
		case <-w.Events:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(silenceDur)
		case <-timer.C:
			return
		}
	}
}
