package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/encodeous/dvsim/core"
	"github.com/encodeous/dvsim/state"
)

// loadConfig reads the topology at configPath, falling back to the built-in topology if the file does not exist
func loadConfig() (*state.SimCfg, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return state.DefaultSimCfg(), nil
	}
	return state.ReadSimCfg(configPath)
}

func newLogger(prefix string, cfg *state.SimCfg) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	path := logPath
	if path == "" && cfg != nil {
		path = cfg.LogPath
	}
	return core.NewLogger(prefix, level, path)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// serveDebug exposes expvar and metric histograms over http if addr is set
func serveDebug(log *slog.Logger, addr string) {
	if addr == "" {
		return
	}
	go func() {
		log.Info("serving debug endpoints", "addr", addr)
		err := http.ListenAndServe(addr, nil)
		if err != nil {
			log.Error("debug server stopped", "err", err)
		}
	}()
}
