package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/pktxmt/internal/config"
	"firestige.xyz/pktxmt/internal/sink"
	"firestige.xyz/pktxmt/internal/source"
)

var validateDump bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without running the flowgraph.

Examples:
  pktxmt validate -c pktxmt.yml
  pktxmt validate -c pktxmt.yml --dump     # print the effective configuration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(configFile, validateDump, cmd.OutOrStdout())
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "print the effective configuration as YAML")
}

func runValidate(path string, dump bool, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}
	if !contains(source.Types(), cfg.Source.Type) {
		return fmt.Errorf("INVALID: unknown source type %q (available: %v)", cfg.Source.Type, source.Types())
	}
	if !contains(sink.Types(), cfg.Sink.Type) {
		return fmt.Errorf("INVALID: unknown sink type %q (available: %v)", cfg.Sink.Type, sink.Types())
	}

	preamble, _ := cfg.Framing.PreambleBytes()
	fmt.Fprintf(out, "VALID: source=%s sink=%s preamble=% X crc=%t header=%t\n",
		cfg.Source.Type, cfg.Sink.Type, preamble, cfg.Framing.CRC, cfg.Framing.Header)

	if dump {
		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = out.Write(data)
		return err
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
