//go:build windows

package main

import (
	"context"
	"log/slog"
)

func startReloader(_ context.Context, _ func(reloadMsg), _ *slog.Logger) {
	// SIGHUP is not available on Windows. Use -watch to reload on change.
}
