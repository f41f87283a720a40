package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/conceal"
)

var (
	revealOut  string
	revealMode string
)

var revealCmd = &cobra.Command{
	Use:   "reveal <carrier.class>",
	Short: "Recover a concealed payload from a class file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReveal,
}

func init() {
	revealCmd.Flags().StringVarP(&revealOut, "output", "o", "", "Write payload to file (default: stdout)")
	revealCmd.Flags().
		StringVarP(&revealMode, "mode", "m", "auto", "Extraction mode: auto, attribute, or sbox")
	rootCmd.AddCommand(revealCmd)
}

func runReveal(_ *cobra.Command, args []string) error {
	classBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read class: %w", err)
	}

	var payload []byte
	var mode conceal.Mode
	switch revealMode {
	case "auto":
		res, err := conceal.Reveal(classBytes)
		if err != nil {
			return err
		}
		payload, mode = res.Payload, res.Mode
	case "attribute":
		mode = conceal.ModeAttribute
		if payload, err = conceal.RevealAttribute(classBytes); err != nil {
			return err
		}
	case "sbox":
		mode = conceal.ModeSBox
		if payload, err = conceal.RevealSBox(classBytes); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode %q (want auto, attribute, or sbox)", revealMode)
	}

	logger.Debug("revealed payload",
		zap.Int("bytes", len(payload)),
		zap.Stringer("mode", mode))

	if revealOut == "" {
		_, err = os.Stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(revealOut, payload, 0o600); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	fmt.Printf("Recovered %d bytes to %s (%s mode)\n", len(payload), revealOut, mode)
	return nil
}
