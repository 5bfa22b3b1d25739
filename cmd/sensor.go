package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/pktxmt/internal/bus"
	"firestige.xyz/pktxmt/internal/sensor"
)

var (
	sensorDevice   string
	sensorInterval time.Duration
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Bridge sensor readings onto the message bus",
}

var sensorPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Read a serial sensor and publish each reading",
	Long: `Read one numeric reading per line from the sensor device and publish it
as an 8-byte big-endian double wrapped in a pair(nil, u8vector) container.

Examples:
  pktxmt sensor publish -c pktxmt.yml
  pktxmt sensor publish -c pktxmt.yml --device /dev/ttyACM0 --interval 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		device, interval := cfg.Sensor.Device, cfg.Sensor.Interval
		if sensorDevice != "" {
			device = sensorDevice
		}
		if cmd.Flags().Changed("interval") {
			interval = sensorInterval
		}

		f, err := os.Open(device)
		if err != nil {
			return fmt.Errorf("failed to open sensor device: %w", err)
		}
		defer f.Close()

		pub, err := bus.NewKafkaPublisher(cfg.Sensor.Bus)
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
		defer pub.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSensorPublish(ctx, f, pub, interval)
	},
}

var sensorSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Print sensor readings received from the bus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sub, err := bus.NewKafkaSubscriber(cfg.Sensor.Bus)
		if err != nil {
			return fmt.Errorf("failed to create subscriber: %w", err)
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runSensorSubscribe(ctx, sub, cmd.OutOrStdout())
	},
}

func init() {
	sensorPublishCmd.Flags().StringVar(&sensorDevice, "device", "", "sensor device path (overrides sensor.device)")
	sensorPublishCmd.Flags().DurationVar(&sensorInterval, "interval", 0, "pause after each published reading")

	sensorCmd.AddCommand(sensorPublishCmd)
	sensorCmd.AddCommand(sensorSubscribeCmd)
}

func runSensorPublish(ctx context.Context, r io.Reader, pub bus.Publisher, interval time.Duration) error {
	err := sensor.NewPublisher(r, pub, interval).Run(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func runSensorSubscribe(ctx context.Context, sub bus.Subscriber, out io.Writer) error {
	return sensor.NewSubscriber(sub).Run(ctx, func(v float64) {
		fmt.Fprintf(out, "%g\n", v)
	})
}
