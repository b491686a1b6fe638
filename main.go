// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeclab/cmd"
	"codeclab/internal/audio"
	"codeclab/internal/bus"
	"codeclab/internal/config"
	"codeclab/internal/engine"
	applog "codeclab/internal/log"
	"codeclab/internal/transport"
	"codeclab/internal/tui"
	"codeclab/internal/variant"
	"codeclab/pkg/build"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 3 * time.Second

// main is the entry point for the codec lab.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Configure logging
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Run the engine loop
//   - Run the front end (terminal UI or headless)
//   - Forward presentation events to the websocket feed
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or UI exit
//   - Shut the engine down and release the devices
//   - Close the bus and the transports
func main() {
	if err := run(os.Args[1:]); err != nil {
		applog.Errorf("%v", err)
		applog.Sync()
		os.Exit(1)
	}
	applog.Sync()
}

func run(args []string) error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		applog.Debugf("Build info incomplete: %v", err)
	}

	opts, err := cmd.ParseArgs(args)
	if err != nil {
		return err
	}
	if opts == nil {
		// --help or --version
		return nil
	}
	cfg := opts.Config

	applog.Configure(applog.Options{
		Level: cfg.Level(),
		File:  cfg.LogFile,
		Quiet: opts.TUIMode,
	})
	applog.Debugf("Starting %s", build.Get())

	// One-off commands don't need the engine running.
	if opts.Command != "" {
		return executeCommand(opts.Command, cfg)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ws *transport.WebSocketTransport
	if cfg.Transport.WebSocketEnabled {
		ws = transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress, cfg.Transport.FeedInterval)
		if err := ws.Start(); err != nil {
			return err
		}
	}

	eventBus := bus.New(nil)
	scope := tui.NewScope(64, 12)
	eng, err := engine.New(engine.Options{
		Config:    cfg,
		Backend:   audio.PortAudio{},
		Publisher: eventBus,
		Renderer:  scope,
		Surface:   scope,
	})
	if err != nil {
		if ws != nil {
			ws.Close()
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// The loop outlives ctx so Close can still shut the engine down.
	g.Go(func() error {
		return eng.Run(context.Background())
	})

	if ws != nil {
		g.Go(func() error {
			defer ws.Close()
			return transport.Forward(gctx, eventBus, ws, bus.TopicVariant, bus.TopicStatus, bus.TopicTrace)
		})
	}

	g.Go(func() error {
		defer func() {
			// ==================== SHUTDOWN PHASE (Cold Path) ====================
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			eng.Close(closeCtx)
			stop()
			if err := eventBus.Close(); err != nil {
				applog.Warnf("Bus close: %v", err)
			}
		}()
		if opts.Headless {
			return runHeadless(gctx, eng, eventBus)
		}
		return runTUI(gctx, eng, eventBus, scope, audio.DeviceLister{}, cfg)
	})

	return g.Wait()
}

// runHeadless initializes the engine, logs presentation events and waits
// for a termination signal.
func runHeadless(ctx context.Context, eng *engine.Engine, eventBus *bus.Bus) error {
	logs := transport.NewLoggingTransport()
	fwdCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- transport.Forward(fwdCtx, eventBus, logs, bus.TopicVariant, bus.TopicStatus, bus.TopicTrace)
	}()
	defer func() {
		cancel()
		<-done
		logs.Close()
	}()

	if err := eng.Initialize(ctx); err != nil {
		applog.Errorf("Initialize: %v", err)
	} else {
		fmt.Printf("%s running headless, press Ctrl+C to stop.\n", build.Get().Name)
	}
	<-ctx.Done()
	return nil
}

// runTUI runs the terminal UI until the user quits.
func runTUI(ctx context.Context, eng *engine.Engine, eventBus *bus.Bus, scope *tui.Scope,
	devices tui.DeviceLister, cfg *config.Config) error {
	uiCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := tui.Listen(uiCtx, eventBus)
	if err != nil {
		return err
	}
	return tui.Run(uiCtx, tui.Options{
		Commander:     eng,
		Catalog:       eng.Catalog(),
		Devices:       devices,
		Scope:         scope,
		Events:        events,
		InputDevice:   cfg.Audio.InputDevice,
		OutputDevice:  cfg.Audio.OutputDevice,
		FrameInterval: cfg.Visual.FrameInterval,
	})
}

// executeCommand handles one-off commands that don't require the engine
// to be running, such as listing available audio devices.
func executeCommand(command string, cfg *config.Config) error {
	switch command {
	case cmd.CommandList:
		devices, err := audio.ListDevices()
		if err != nil {
			return err
		}
		audio.WriteDevices(os.Stdout, devices)
		return nil
	case cmd.CommandVariants:
		catalog := variant.Default()
		if len(cfg.Variants) > 0 {
			var err error
			if catalog, err = variant.FromConfig(cfg.Variants); err != nil {
				return err
			}
		}
		cmd.WriteVariants(os.Stdout, catalog)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
