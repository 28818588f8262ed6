package main

import (
	"fmt"
	"log/slog"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Size GOMAXPROCS, and with it the default worker pool, to the container
	// CPU quota.
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		slog.Warn("failed to set GOMAXPROCS", "error", err)
	}
	defer undo()

	Execute()
}
