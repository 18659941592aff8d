package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "taskmasterd [conf_file]",
	Short:         "taskmasterd -- lightweight process supervisor daemon",
	Long:          "taskmasterd supervises a configured set of child processes, restarting them according to per-program policy and exposing a control socket for status/start/stop/restart/update/reload/shutdown.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
