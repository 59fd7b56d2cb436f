// Package main is the entry point for the pingboard CLI.
//
// Pingboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	pingboard serve -c config.yaml     # Start the dashboard
//	pingboard validate -c config.yaml  # Validate configuration
//	pingboard probe -c config.yaml     # Probe every target once
//	pingboard probe 192.168.1.1        # Probe ad-hoc addresses
//	pingboard version                  # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=2.1.0"
var (
	version = "2.0.0"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pingboard",
	Short: "A lightweight reachability dashboard",
	Long: `Pingboard is a lightweight, real-time reachability dashboard.

It probes network targets over HTTP, then HTTPS, then raw TCP at a fixed
interval and shows which are online in a web UI with live updates.

Quick start:
  1. Create a config file (pingboard.yaml)
  2. Run: pingboard serve -c pingboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  poll_interval: 10s
  targets:
    - name: Router
      address: 192.168.1.1
    - name: NAS
      address: nas.local:5000`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pingboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pingboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
