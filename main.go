package main

import (
	"fmt"
	"os"

	"finora/api/config"

	"github.com/spf13/cobra"
)

// dotenvErr is reported once the logger is up.
var dotenvErr error

func init() {
	dotenvErr = config.LoadDotEnv()
}

var rootCmd = &cobra.Command{
	Use:           "finora",
	Short:         "Personal finance planning API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, summaryCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
