package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dougsko/rigd/pkg/config"
	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/logging"
	"github.com/dougsko/rigd/pkg/server"
	"github.com/dougsko/rigd/pkg/verbose"
)

const (
	Version = "0.1.0-dev"
	Build   = "development"
)

var fOptions struct {
	ConfigPath string
	SocketPath string
	Listen     string
	Profile    string
	Open       bool
	Verbose    bool
	Version    bool
}

func optionsSet() *pflag.FlagSet {
	set := pflag.NewFlagSet("options", pflag.ExitOnError)

	set.StringVarP(&fOptions.ConfigPath, "config", "c", "", "Path to config file. Defaults and RIGD_* environment variables apply without one.")
	set.StringVar(&fOptions.SocketPath, "socket", "", "Unix socket path (overrides api.unix_socket).")
	set.StringVarP(&fOptions.Listen, "listen", "l", "", "HTTP listen address, e.g. 127.0.0.1:8080 (overrides web.*).")
	set.StringVarP(&fOptions.Profile, "profile", "p", "", "Profile to select at startup (sqlite profile source only).")
	set.BoolVar(&fOptions.Open, "open", false, "Connect to the rig at startup.")
	set.BoolVarP(&fOptions.Verbose, "verbose", "v", false, "Trace rig traffic and engine events.")
	set.BoolVar(&fOptions.Version, "version", false, "Show version information.")

	return set
}

func init() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s polls a transceiver and serves its state over a unix socket and HTTP.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [options]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		optionsSet().PrintDefaults()
		fmt.Fprint(os.Stderr, "\n")
	}
}

func main() {
	set := optionsSet()
	set.Usage = pflag.Usage
	set.Parse(os.Args[1:])

	if fOptions.Version {
		fmt.Printf("rigd version %s (%s)\n", Version, Build)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(fOptions.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := applyFlags(cfg); err != nil {
		log.Fatalf("Invalid option: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logging.InitGlobalLogger(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseGlobalLogger()

	if fOptions.Verbose {
		verbose.SetEnabled(true)
	}
	server.Version = Version

	logging.Infof("main", "rigd version %s starting...", Version)
	logging.Infof("main", "Profiles: %s (%s)", cfg.Profiles.Path, cfg.Profiles.Source)
	logging.Infof("main", "Socket: %s, web interface: http://%s", cfg.API.UnixSocket, cfg.WebAddr())

	daemon, err := NewRigDaemon(cfg, hardware.NewRouter())
	if err != nil {
		logging.Errorf("main", "Failed to create daemon: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx); err != nil {
		logging.Errorf("main", "rigd failed: %v", err)
		os.Exit(1)
	}
	logging.Info("main", "rigd stopped")
}

// applyFlags lets command line options override the loaded config
func applyFlags(cfg *config.Config) error {
	if fOptions.SocketPath != "" {
		cfg.API.UnixSocket = fOptions.SocketPath
	}
	if fOptions.Listen != "" {
		host, port, err := splitListen(fOptions.Listen)
		if err != nil {
			return err
		}
		cfg.Web.BindAddress, cfg.Web.Port = host, port
	}
	if fOptions.Profile != "" {
		cfg.Profiles.Current = fOptions.Profile
	}
	if fOptions.Open {
		cfg.Rig.AutoOpen = true
	}
	return nil
}

func splitListen(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("listen %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("listen %q: invalid port", addr)
	}
	return host, port, nil
}
