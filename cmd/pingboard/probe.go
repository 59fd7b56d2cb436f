package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/pingboard"
	"github.com/jpalmerr/pingboard/config"
)

// probeCmd runs one probing cycle and prints the verdicts.
var probeCmd = &cobra.Command{
	Use:   "probe [address...]",
	Short: "Probe targets once and print their status",
	Long: `Probe every target once and print one line per target.

Targets come from a config file (-c) or from the address arguments. Each
address is a host, IP or host:port without scheme. No server is started.

Exit codes:
  0 - Every target is online
  1 - At least one target is offline, or the targets could not be loaded

Example:
  pingboard probe -c config.yaml
  pingboard probe 192.168.1.1 nas.local:5000 --concurrency 8`,
	SilenceUsage: true,
	RunE:         runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringP("config", "c", "", "path to config file")
	probeCmd.Flags().Int("concurrency", 4, "targets probed at once")
	probeCmd.Flags().Duration("http-timeout", 0, "timeout per HTTP/HTTPS attempt (default 3s)")
	probeCmd.Flags().Duration("tcp-timeout", 0, "timeout per TCP connect (default 2s)")
}

var (
	onlineLabel  = color.New(color.FgGreen, color.Bold).SprintFunc()
	offlineLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	faint        = color.New(color.Faint).SprintFunc()
)

func runProbe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	httpTimeout, _ := cmd.Flags().GetDuration("http-timeout")
	tcpTimeout, _ := cmd.Flags().GetDuration("tcp-timeout")

	opts, err := probeOptions(configFile, args)
	if err != nil {
		return err
	}

	opts = append(opts,
		pingboard.WithMaxConcurrency(concurrency),
		pingboard.WithLogger(newLogger(slog.LevelError)),
	)
	if httpTimeout > 0 {
		opts = append(opts, pingboard.WithHTTPTimeout(httpTimeout))
	}
	if tcpTimeout > 0 {
		opts = append(opts, pingboard.WithTCPTimeout(tcpTimeout))
	}

	pb, err := pingboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create Pingboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return probeOnce(ctx, pb, cmd.OutOrStdout())
}

// probeOptions builds the target options from either a config file or
// ad-hoc addresses.
func probeOptions(configFile string, addresses []string) ([]pingboard.Option, error) {
	switch {
	case configFile != "" && len(addresses) > 0:
		return nil, errors.New("pass either --config or addresses, not both")
	case configFile != "":
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return config.BuildOptions(cfg)
	case len(addresses) > 0:
		targets := make([]pingboard.Target, 0, len(addresses))
		for _, a := range addresses {
			t, err := pingboard.NewTarget(a, "")
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		return []pingboard.Option{pingboard.WithTargets(targets...)}, nil
	default:
		return nil, errors.New("no targets: pass --config or at least one address")
	}
}

// probeOnce checks every target of pb and writes one line per result.
func probeOnce(ctx context.Context, pb *pingboard.PingBoard, out io.Writer) error {
	start := time.Now()
	results, err := pb.Check(ctx)
	for _, r := range results {
		printResult(out, r)
	}
	if err != nil {
		return fmt.Errorf("probe interrupted: %w", err)
	}

	offline := 0
	for _, r := range results {
		if !r.Reachable {
			offline++
		}
	}
	fmt.Fprintf(out, "\n%d online, %d offline in %s\n",
		len(results)-offline, offline, time.Since(start).Round(time.Millisecond))

	if offline > 0 {
		return fmt.Errorf("%d of %d targets offline", offline, len(results))
	}
	return nil
}

func printResult(out io.Writer, r pingboard.ProbeResult) {
	label := offlineLabel("OFFLINE")
	timing := faint("-")
	if r.Reachable {
		label = onlineLabel("ONLINE ")
		if r.ResponseTimeMs != nil {
			timing = fmt.Sprintf("%.2fms", *r.ResponseTimeMs)
		}
	}

	name := r.Name
	if name != r.Address {
		name = fmt.Sprintf("%s (%s)", r.Name, r.Address)
	}
	fmt.Fprintf(out, "%s  %-40s  %-32s  %s\n", label, name, r.Detail, timing)
}
