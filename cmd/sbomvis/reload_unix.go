//go:build !windows

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// startReloader reloads the SBOM inputs on SIGHUP until ctx is done.
func startReloader(ctx context.Context, send func(reloadMsg), logger *slog.Logger) {
	sighupChan := make(chan os.Signal, 1)
	signal.Notify(sighupChan, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sighupChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighupChan:
				logger.Info("SIGHUP received, reloading inputs")
				send(reloadMsg{path: "SIGHUP"})
			}
		}
	}()
}
