package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trustedwinner/internal/logger"
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:           "trustedwinner",
	Short:         "Run and verify auditable, reproducible draws",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = flagLogLevel
		}

		parsed, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}

		logger.SetLevel(parsed)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(createCertificateCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	logger.Init()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
