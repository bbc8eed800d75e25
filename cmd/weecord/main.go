package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"git.sr.ht/~delthas/weecord"
)

func main() {
	var configPath string
	var debug bool
	var version bool
	pflag.StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	pflag.BoolVar(&debug, "debug", false, "log debug messages to the log file")
	pflag.BoolVar(&version, "version", false, "show version info")
	pflag.Parse()

	if version {
		if v, ok := weecord.BuildVersion(); ok {
			fmt.Printf("weecord version %v\n", v)
		} else {
			fmt.Printf("weecord (unknown version)\n")
		}
		return
	}

	if configPath == "" {
		var err error
		configPath, err = weecord.DefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to find the configuration directory: %s\n", err)
			os.Exit(1)
			return
		}
	}

	cfg, err := weecord.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load the configuration file at %q: %s\n", configPath, err)
		os.Exit(1)
		return
	}
	cfg.Debug = cfg.Debug || debug

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open the log file at %q: %s\n", cfg.LogFile, err)
		os.Exit(1)
		return
	}
	defer closeLog()

	app, err := weecord.NewApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %s\n", err)
		os.Exit(1)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigCh
		app.Close()
	}()

	app.Run()
	app.Close()
}

// openLogger returns the logger writing to the configured log file. The
// terminal belongs to the interface, so nothing is logged without one.
func openLogger(cfg weecord.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, func() { f.Close() }, nil
}
