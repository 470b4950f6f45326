package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/valerio/go-psxcore/psx"
	"github.com/valerio/go-psxcore/psx/cdrom"
	"github.com/valerio/go-psxcore/psx/debug"
	"github.com/valerio/go-psxcore/psx/timing"
)

// Exit codes: 0 normal termination, 1 missing/invalid BIOS, 2
// missing/invalid disc.
const (
	exitOK          = 0
	exitBadBIOS     = 1
	exitBadDisc     = 2
	exitRunnerError = 3
)

func main() {
	app := cli.NewApp()
	app.Name = "psxcore"
	app.Description = "A cycle-oriented PlayStation emulator core"
	app.Usage = "psxcore --bios SCPH1001.BIN [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to the 512 KiB BIOS image (required)",
		},
		cli.StringFlag{
			Name:  "disc",
			Usage: "Path to a .cue sheet or raw .bin disc image",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without any terminal display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of fields to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save VRAM snapshots every N fields in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save VRAM snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "debug-tui",
			Usage: "Run an interactive terminal register/VRAM inspector instead of free-running",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("error running emulator", "error", err)
		code := exitRunnerError
		var exitErr *cliExitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		os.Exit(code)
	}
}

// cliExitError carries one of the three exit codes above through
// urfave/cli's plain error-returning Action signature.
type cliExitError struct {
	code int
	err  error
}

func (e *cliExitError) Error() string { return e.err.Error() }
func (e *cliExitError) Unwrap() error { return e.err }

func runEmulator(c *cli.Context) error {
	biosPath := c.String("bios")
	if biosPath == "" {
		cli.ShowAppHelp(c)
		return &cliExitError{exitBadBIOS, errors.New("no BIOS path provided, use --bios")}
	}

	emu, err := psx.NewWithBIOS(biosPath)
	if err != nil {
		return &cliExitError{exitBadBIOS, fmt.Errorf("loading BIOS: %w", err)}
	}

	if discPath := c.String("disc"); discPath != "" {
		disc, err := cdrom.LoadDisc(discPath)
		if err != nil {
			return &cliExitError{exitBadDisc, fmt.Errorf("loading disc: %w", err)}
		}
		emu.LoadDisc(disc)
		slog.Info("loaded disc image", "path", discPath, "tracks", disc.TrackCount())
	}

	if c.Bool("debug-tui") {
		tui, err := debug.New(emu)
		if err != nil {
			return err
		}
		tui.Run()
		return nil
	}

	if c.Bool("headless") {
		return runHeadless(c, emu)
	}

	limiter := timing.NewTickerLimiter()
	defer limiter.Stop()
	for {
		emu.RunUntilFrame()
		limiter.WaitForNextFrame()
	}
}

func runHeadless(c *cli.Context, emu *psx.Emulator) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames option with a positive value")
	}

	snapshotInterval := c.Int("snapshot-interval")
	snapshotDir := c.String("snapshot-dir")
	if snapshotInterval > 0 {
		if snapshotDir == "" {
			tempDir, err := os.MkdirTemp("", "psxcore-snapshots-*")
			if err != nil {
				return fmt.Errorf("failed to create snapshot directory: %v", err)
			}
			snapshotDir = tempDir
		} else if err := os.MkdirAll(snapshotDir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %v", err)
		}
	}

	slog.Info("running headless", "fields", frames, "snapshot_interval", snapshotInterval, "snapshot_dir", snapshotDir)

	limiter := timing.NewNoOpLimiter()
	for i := 0; i < frames; i++ {
		emu.RunUntilFrame()
		limiter.WaitForNextFrame()

		if snapshotInterval > 0 && (i+1)%snapshotInterval == 0 {
			path := filepath.Join(snapshotDir, fmt.Sprintf("field_%06d.ppm", i+1))
			if err := saveVRAMSnapshot(emu, path); err != nil {
				slog.Error("failed to save snapshot", "field", i+1, "path", path, "error", err)
			} else {
				slog.Info("saved VRAM snapshot", "field", i+1, "path", path)
			}
		}
		if i%60 == 0 {
			slog.Info("field progress", "completed", i+1, "total", frames)
		}
	}

	slog.Info("headless execution completed", "fields", frames, "instructions", emu.GetInstructionCount())
	return nil
}

// saveVRAMSnapshot dumps the top-left 1024x512 VRAM plane as a binary
// PPM, converting each ARGB1555 channel to 8-bit with ch8 = ch5*8.
func saveVRAMSnapshot(emu *psx.Emulator, path string) error {
	vram := emu.GetVRAM()
	const w, h = 1024, 512

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "P6\n%d %d\n255\n", w, h)
	buf := make([]byte, w*h*3)
	for i, px := range vram {
		r := uint8(px&0x1F) * 8
		g := uint8((px>>5)&0x1F) * 8
		b := uint8((px>>10)&0x1F) * 8
		buf[i*3], buf[i*3+1], buf[i*3+2] = r, g, b
	}
	_, err = file.Write(buf)
	return err
}
