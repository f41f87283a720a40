package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ghostctl",
	Short: "Conceal and recover payloads in JVM class files",
	Long: `ghostctl hides opaque byte strings inside compiled class files and
recovers them bit-for-bit. Two strategies are available: a custom class-level
attribute, and S-Box smearing where the payload masquerades as a cryptographic
lookup table initialized at class-load time.`,
	Version:      "0.2.0",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.ghostctl.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("java", "", "Path to the java binary used for runtime verification")
}

// setup wires config file, environment, and flags through viper, then builds
// the logger. Flags win over environment, environment over file.
func setup(_ *cobra.Command, _ []string) error {
	readConfig := false
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		readConfig = true
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".ghostctl")
		viper.SetConfigType("yaml")
		readConfig = true
	}
	viper.SetEnvPrefix("GHOSTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if readConfig {
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("config: %w", err)
			}
		}
	}
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return err
	}
	if err := viper.BindPFlag("java", rootCmd.PersistentFlags().Lookup("java")); err != nil {
		return err
	}
	debug = viper.GetBool("debug")

	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	var err error
	logger, err = cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
