// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/pktxmt/internal/config"
	"firestige.xyz/pktxmt/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pktxmt",
	Short: "pktxmt - tag-synchronized packet framing transmitter",
	Long: `pktxmt turns PDUs into a framed byte stream.

Each PDU is serialized into a tagged stream, its first byte is marked as a
packet boundary and a fixed preamble is injected ahead of it before the bytes
reach the sink (file, UDP, console).

It also bridges a line-oriented serial sensor onto a Kafka topic.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults are used when empty)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sensorCmd)
}

// loadConfig reads the configuration and initializes the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := log.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}
