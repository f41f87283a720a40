package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/conceal"
)

var (
	concealOut  string
	concealMode string
)

var concealCmd = &cobra.Command{
	Use:   "conceal <carrier.class> <payload-file>",
	Short: "Embed a payload file inside a class file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConceal,
}

func init() {
	concealCmd.Flags().StringVarP(&concealOut, "output", "o", "", "Output path (default: overwrite carrier)")
	concealCmd.Flags().
		StringVarP(&concealMode, "mode", "m", "attribute", "Concealment mode: attribute or sbox")
	rootCmd.AddCommand(concealCmd)
}

func parseMode(s string) (conceal.Mode, error) {
	switch s {
	case "attribute":
		return conceal.ModeAttribute, nil
	case "sbox":
		return conceal.ModeSBox, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want attribute or sbox)", s)
	}
}

func runConceal(_ *cobra.Command, args []string) error {
	mode, err := parseMode(concealMode)
	if err != nil {
		return err
	}
	carrier, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read carrier: %w", err)
	}
	payload, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	logger.Debug("concealing",
		zap.String("carrier", args[0]),
		zap.Int("carrier_bytes", len(carrier)),
		zap.Int("payload_bytes", len(payload)),
		zap.Stringer("mode", mode))

	out, err := conceal.Conceal(carrier, payload, mode)
	if err != nil {
		return err
	}

	dest := concealOut
	if dest == "" {
		dest = args[0]
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("Concealed %d payload bytes in %s (%s mode, %+d bytes overhead)\n",
		len(payload), dest, mode, len(out)-len(carrier)-len(payload))
	return nil
}
