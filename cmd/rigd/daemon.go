package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dougsko/rigd/pkg/client"
	"github.com/dougsko/rigd/pkg/config"
	"github.com/dougsko/rigd/pkg/engine"
	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/hub"
	"github.com/dougsko/rigd/pkg/logging"
	"github.com/dougsko/rigd/pkg/profile"
	"github.com/dougsko/rigd/pkg/server"
	"github.com/dougsko/rigd/pkg/verbose"
)

// RigDaemon wires the engine to its profile source and outer surfaces
type RigDaemon struct {
	config *config.Config

	// exactly one of these is set, depending on the profile source
	file  *profile.FileProvider
	store *profile.SQLiteStore

	engine       *engine.Engine
	hub          *hub.Hub
	server       *server.Server
	socketClient *client.SocketClient
	router       *gin.Engine
}

// NewRigDaemon creates a daemon instance
func NewRigDaemon(cfg *config.Config, backend hardware.Backend) (*RigDaemon, error) {
	d := &RigDaemon{config: cfg}

	var provider profile.Provider
	switch cfg.Profiles.Source {
	case config.SourceSQLite:
		store, err := profile.NewSQLiteStore(cfg.Profiles.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open profile store: %w", err)
		}
		if cfg.Profiles.Current != "" {
			if err := store.Select(cfg.Profiles.Current); err != nil {
				store.Close()
				return nil, fmt.Errorf("failed to select profile %q: %w", cfg.Profiles.Current, err)
			}
		}
		d.store = store
		provider = store
	default:
		fp, err := profile.NewFileProvider(cfg.Profiles.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		d.file = fp
		provider = fp
	}

	// new subscribers get the full state on the next poll
	d.hub = hub.New(func() { d.engine.RequestFullState() })
	d.engine = engine.New(backend, provider, engine.MultiSink{d.hub, engine.SinkFunc(logEvent)}, engine.Options{
		SlowInterval:    cfg.SlowInterval(),
		StartupInterval: cfg.StartupInterval(),
		LockWait:        cfg.LockWait(),
		SettleDelay:     cfg.SettleDelay(),
	})

	d.server = server.New(d.engine, cfg.API.UnixSocket)
	d.socketClient = client.NewSocketClient(cfg.API.UnixSocket)
	d.router = d.setupRouter()
	return d, nil
}

func logEvent(ev engine.Event) {
	if verbose.IsEnabled() {
		verbose.Printf("event %s %+v", ev.EventType(), ev)
	}
}

// Run starts every component and blocks until ctx is done or one of
// them fails.
func (d *RigDaemon) Run(ctx context.Context) error {
	if d.store != nil {
		defer d.store.Close()
	}

	// The socket must exist before the web handlers can reach it
	if err := d.server.Start(); err != nil {
		return err
	}

	webServer := &http.Server{
		Addr:    d.config.WebAddr(),
		Handler: d.router,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.engine.Run(ctx) })
	g.Go(func() error { return d.hub.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		return d.server.Stop()
	})
	if d.file != nil && d.config.Profiles.Watch {
		g.Go(func() error { return d.file.Watch(ctx) })
	}
	g.Go(func() error {
		logging.Infof("main", "Starting web server on %s", webServer.Addr)
		if err := webServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return webServer.Shutdown(shutdownCtx)
	})

	if d.config.Rig.AutoOpen {
		d.engine.Open()
	}

	return g.Wait()
}

// profiles lists the profiles of the configured source
func (d *RigDaemon) profiles() ([]profile.Profile, error) {
	if d.store != nil {
		return d.store.List()
	}
	return d.file.List(), nil
}
