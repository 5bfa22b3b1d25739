package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/pktxmt/internal/config"
	"firestige.xyz/pktxmt/internal/log"
	"firestige.xyz/pktxmt/internal/metrics"
	"firestige.xyz/pktxmt/internal/pipeline"
	"firestige.xyz/pktxmt/internal/scheduler"
)

var runName string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transmit flowgraph",
	Long: `Run the transmit flowgraph described by the configuration file.

The flowgraph runs until the source is exhausted or SIGINT/SIGTERM is received.

Examples:
  pktxmt run                       # strobe "Hello" to the console with defaults
  pktxmt run -c pktxmt.yml         # run the configured source and sink`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runTransmit(ctx, cfg, runName, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runName, "name", "n", "pktxmt", "flowgraph name used in logs and metrics")
}

// runTransmit runs one pipeline until it finishes or ctx is done.
func runTransmit(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	logger := log.GetLogger()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to stop metrics server")
			}
		}()
	}

	p, err := pipeline.FromConfig(name, cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	sched := scheduler.GetScheduler()
	job := sched.AddJob(p)
	defer sched.RemoveJob(job.ID)

	select {
	case <-job.Done():
	case <-ctx.Done():
		logger.Info("received shutdown signal")
		job.Stop()
	}
	if err := job.Err(); err != nil {
		return fmt.Errorf("flowgraph %s failed: %w", name, err)
	}

	stats := p.Stats()
	fmt.Fprintf(out, "✓ %s: %d packets framed (%d payload bytes, %d preamble bytes, %d stale bytes dropped)\n",
		name, stats.Preambles, stats.PayloadBytes, stats.PreambleBytes, stats.StaleBytes)
	return nil
}
