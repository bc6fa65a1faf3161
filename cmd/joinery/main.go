package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openjoinery/joinery/cmd/joinery/commands"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	setupLogging()

	// A second interrupt while a batch is draining kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Execute(ctx, Version, Commit, BuildDate)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("joinery failed")
		os.Exit(1)
	}
}

// setupLogging configures the global logger until a config file is loaded.
// JOINERY_LOG_LEVEL takes precedence over LOG_LEVEL.
func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	level := zerolog.InfoLevel
	for _, env := range []string{"LOG_LEVEL", "JOINERY_LOG_LEVEL"} {
		if v := os.Getenv(env); v != "" {
			if l, err := zerolog.ParseLevel(v); err == nil {
				level = l
			}
		}
	}
	zerolog.SetGlobalLevel(level)
}
