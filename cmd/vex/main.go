// Package main is the entry point for the vex front end. It launches the
// core process, wires the message peer to the application, and runs until
// the user interrupts or the core exits.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vexedit/vex/internal/config"
	"github.com/vexedit/vex/internal/core"
	"github.com/vexedit/vex/internal/frontend"
	"github.com/vexedit/vex/internal/log"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	coreCmd    string
	logLevel   string
	files      []string
}

func run() int {
	opts := parseFlags()

	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	// Flags win over the config file.
	if opts.coreCmd != "" {
		cfg.Core.Command = opts.coreCmd
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := log.New(log.ParseLevel(cfg.Log.Level), os.Stderr)

	proc, err := core.Launch(core.ProcessConfig{
		Command: cfg.Core.Command,
		Args:    cfg.Core.Args,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to launch core %q: %v\n", cfg.Core.Command, err)
		return 1
	}
	defer proc.Stop()
	logger.Infof("core %s started (instance %s)", cfg.Core.Command, proc.ID())

	// The peer needs its handler up front while the app needs the peer, so
	// a dispatcher sits between them.
	dispatcher := frontend.NewDispatcher()
	peer := core.NewPeer(proc.Stdout(), proc.Stdin(), dispatcher, logger)
	app := frontend.NewApp(peer, logger)
	dispatcher.SetApp(app)

	if err := app.ClientStarted(cfg.Core.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: client_started: %v\n", err)
		return 1
	}

	if len(opts.files) == 0 {
		opts.files = []string{""}
	}
	for _, path := range opts.files {
		if _, err := app.NewView(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: open %q: %v\n", path, err)
			return 1
		}
	}

	// Live-reload log level when the config file changes. Best effort: a
	// missing watcher is not fatal.
	if watcher, err := config.Watch(configPath, logger, func(cfg config.Config) {
		logger.SetLevel(log.ParseLevel(cfg.Log.Level))
	}); err == nil {
		defer watcher.Close()
	} else {
		logger.Debugf("config watcher unavailable: %v", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-signals:
		logger.Infof("interrupted, shutting down")
	case <-peer.Done():
		if err := proc.Wait(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: core exited: %v\n", err)
			return 1
		}
		logger.Infof("core exited")
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.coreCmd, "core", "", "Core executable to launch")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Vex - xi-core front end\n\n")
		fmt.Fprintf(os.Stderr, "Usage: vex [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Vex %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	opts.files = flag.Args()
	return opts
}
