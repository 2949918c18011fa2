package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"github.com/valerio/go-sidtrack/sidtrack"
	"github.com/valerio/go-sidtrack/sidtrack/backend"
	"github.com/valerio/go-sidtrack/sidtrack/backend/headless"
	"github.com/valerio/go-sidtrack/sidtrack/backend/terminal"
	"github.com/valerio/go-sidtrack/sidtrack/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "sidtrack"
	app.Description = "Plays a SID-style tune and keeps a scrubbable flight recorder of every tick"
	app.Usage = "sidtrack [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a TOML config file",
		},
		cli.StringFlag{
			Name:  "audio",
			Usage: "Audio device: sdl2, oto, virtual or none",
		},
		cli.IntFlag{
			Name:  "sample-rate",
			Usage: "Requested sample rate in Hz",
		},
		cli.IntFlag{
			Name:  "bit-depth",
			Usage: "Requested sample depth: 8 or 16",
		},
		cli.IntFlag{
			Name:  "buffer",
			Usage: "Requested device buffer in samples (floored to a power of two)",
		},
		cli.IntFlag{
			Name:  "capacity",
			Usage: "Number of ticks kept by the flight recorder",
		},
		cli.IntFlag{
			Name:  "tick-rate",
			Usage: "Ticks per second: 50 (PAL) or 60 (NTSC)",
		},
		cli.Float64Flag{
			Name:  "tone",
			Usage: "Base frequency of the built-in tune in Hz",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Tick pacing: adaptive, ticker or none",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal UI",
		},
		cli.IntFlag{
			Name:  "ticks",
			Usage: "Number of ticks to run (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "log-interval",
			Usage: "Log the newest frame every N ticks in headless mode (0 = disabled)",
			Value: 50,
		},
	}
	app.Action = runSession

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running sidtrack", "error", err)
		os.Exit(1)
	}
}

func runSession(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ticks := c.Int("ticks")
	if ticks < 0 {
		return errors.New("--ticks must not be negative")
	}

	var b backend.Backend
	if c.Bool("headless") {
		if ticks == 0 {
			return errors.New("headless mode requires --ticks option with a positive value")
		}
		b = headless.New(uint64(ticks), uint64(max(c.Int("log-interval"), 0)))
	} else {
		b = terminal.New()
	}

	session, err := sidtrack.NewSession(cfg, b, sidtrack.WithMaxTicks(uint64(ticks)))
	if err != nil {
		return err
	}

	// The terminal backend handles its own signals; headless runs rely on this.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := session.Run(ctx)
	closeErr := session.Close()
	if errors.Is(runErr, context.Canceled) {
		slog.Info("Interrupted")
		runErr = nil
	}
	return errors.Join(runErr, closeErr)
}

// loadConfig layers explicitly set flags over the config file (or defaults).
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("audio") {
		cfg.Audio.Device = c.String("audio")
	}
	if c.IsSet("sample-rate") {
		cfg.Audio.SampleRate = c.Int("sample-rate")
	}
	if c.IsSet("bit-depth") {
		cfg.Audio.BitDepth = c.Int("bit-depth")
	}
	if c.IsSet("buffer") {
		cfg.Audio.BufferDuration = c.Int("buffer")
	}
	if c.IsSet("capacity") {
		cfg.Recorder.Capacity = c.Int("capacity")
	}
	if c.IsSet("tick-rate") {
		cfg.Machine.TickRate = c.Int("tick-rate")
	}
	if c.IsSet("tone") {
		cfg.Machine.Tone = c.Float64("tone")
	}
	if c.IsSet("limiter") {
		cfg.Machine.Limiter = c.String("limiter")
	}

	return cfg, nil
}
