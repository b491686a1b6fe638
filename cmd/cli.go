// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"codeclab/internal/config"
	"codeclab/internal/variant"
	"codeclab/pkg/build"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// One-off commands that run without the engine.
const (
	CommandList     = "list"
	CommandVariants = "variants"
)

// Options is the parsed command line.
type Options struct {
	Config   *config.Config
	Command  string // one-off command, empty to run the lab
	TUIMode  bool
	Headless bool
}

type flagValues struct {
	configPath   string
	device       int
	outputDevice int
	logLevel     string
	verbose      bool
	headless     bool
	websocket    bool
	wsAddress    string
	keepCaptures bool
	captureDir   string
}

// ParseArgs parses args (without the program name) and loads the
// configuration, applying flag overrides on top of it.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.Get()
	options := &Options{}
	flags := flagValues{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Headless = flags.headless
			options.TUIMode = !flags.headless
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandList,
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandList
		},
	})

	// Variants command
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandVariants,
		Short: "List the processing variants and their filters",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVariants
		},
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file (default: codeclab.yaml or config.yaml if present)")

	// Audio Device Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVar(&flags.outputDevice, "output-device", config.DefaultDeviceID,
		"Specify output device ID used for playback and the confirmation tone.")

	// Capture Configuration
	pf.BoolVarP(&flags.keepCaptures, "keep", "k", config.DefaultKeepCaptures,
		"Keep capture WAV files after reset")
	pf.StringVar(&flags.captureDir, "capture-dir", "",
		"Directory for capture files (default: system temp dir)")

	// Presentation
	pf.BoolVar(&flags.headless, "headless", false,
		"Run without the terminal UI; the lab starts immediately")
	pf.BoolVar(&flags.websocket, "ws", false,
		"Serve presentation events over websocket")
	pf.StringVar(&flags.wsAddress, "ws-addr", config.DefaultWebSocketAddress,
		"Websocket listen address")

	// Debug Configuration
	pf.StringVar(&flags.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output (debug logging)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if options.Config == nil {
		// --help and --version return before any command ran.
		return nil, nil
	}
	return options, nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags flagValues) {
	changed := cmd.Flags().Changed
	if changed("device") {
		cfg.Audio.InputDevice = flags.device
	}
	if changed("output-device") {
		cfg.Audio.OutputDevice = flags.outputDevice
	}
	if changed("keep") {
		cfg.Capture.KeepFiles = flags.keepCaptures
	}
	if changed("capture-dir") {
		cfg.Capture.Dir = flags.captureDir
	}
	if changed("ws") {
		cfg.Transport.WebSocketEnabled = flags.websocket
	}
	if changed("ws-addr") {
		cfg.Transport.WebSocketAddress = flags.wsAddress
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("verbose") {
		cfg.Debug = flags.verbose
	}
}

// WriteVariants prints a coloured variant listing to w.
func WriteVariants(w io.Writer, catalog *variant.Catalog) {
	title := color.New(color.Bold)
	dim := color.New(color.Faint)

	title.Fprintf(w, "\nProcessing Variants\n\n")
	for i, v := range catalog.All() {
		fmt.Fprintf(w, "[%d] ", i+1)
		color.New(color.FgHiWhite, color.Bold).Fprint(w, v.ID.Label())
		fmt.Fprintf(w, "  %s\n", v.Meta.Title)
		dim.Fprintf(w, "    Filter: %s %.0f Hz, Q %.2f\n", v.Filter.Kind, v.Filter.Frequency, v.Filter.Q)
		dim.Fprintf(w, "    Bitrate %s kbps, MOS %s, latency %s ms, complexity %s\n",
			v.Meta.Bitrate, v.Meta.Quality, v.Meta.Latency, v.Meta.Complexity)
		if v.Meta.Tag != "" {
			dim.Fprintf(w, "    Used in: %s\n", v.Meta.Tag)
		}
		fmt.Fprintln(w)
	}
}
