package main

import (
	"os"

	"github.com/spf13/cobra"

	"manimserve/logger"
)

var (
	flagLogLevel string
	flagLogFile  string
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file (default $LOG_FILE)")
	rootCmd.PersistentPreRunE = initLogging

	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(renderCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("manimserve failed: %v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

var rootCmd = &cobra.Command{
	Use:          "manimserve",
	Short:        "Render Manim scripts to video and publish them to object storage",
	SilenceUsage: true,
	RunE:         runServe,
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	file := flagLogFile
	if file == "" {
		file = os.Getenv("LOG_FILE")
	}
	return logger.Init(file, true, logger.ParseLevel(level))
}
