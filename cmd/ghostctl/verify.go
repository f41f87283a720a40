package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/verify"
)

var (
	verifyRuntime bool
	verifyEntry   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file.class>",
	Short: "Check a class file structurally, and optionally against a host JVM",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyRuntime, "runtime", false, "Also load the class in a host JVM")
	verifyCmd.Flags().
		StringVar(&verifyEntry, "entry", "", "Static no-arg method to invoke during the runtime check")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	classBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read class: %w", err)
	}

	if err := verify.Structural(classBytes); err != nil {
		return err
	}
	fmt.Println("structural: ok")

	if !verifyRuntime {
		return nil
	}
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return err
	}
	className, err := cf.ThisClassName()
	if err != nil {
		return err
	}
	g := verify.NewGateway(viper.GetString("java"), logger)
	if err := g.Runtime(cmd.Context(), classBytes, className, verifyEntry); err != nil {
		return err
	}
	fmt.Println("runtime: ok")
	return nil
}
