// Command wlgl opens a Wayland window, binds it to an OpenGL context
// and renders a single frame into it.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"deedles.dev/wlgl/accel/soft"
	"deedles.dev/wlgl/app"
	"deedles.dev/wlgl/config"
	"deedles.dev/wlgl/internal/debug"
	"github.com/charmbracelet/log"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "wlgl",
		ReportTimestamp: true,
	})

	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatal("invalid configuration", "err", err)
	}

	if cfg.Verbose || debug.Tracing() {
		logger.SetLevel(log.DebugLevel)
	}
	debug.SetLogger(slog.New(logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = app.Run(ctx, cfg, new(soft.Driver))
	if err != nil {
		cancel()
		logger.Fatal("run", "err", err)
	}
}
