package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	socketFlag string
	confFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "taskmasterctl",
	Short:         "taskmasterctl -- interactive control client for taskmasterd",
	Long:          "taskmasterctl connects to a taskmasterd control socket and reads verb lines from stdin: status, start, stop, restart, update, reload, shutdown, open <path>, version, help, quit/exit.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRepl,
}

func init() {
	rootCmd.Flags().StringVarP(&socketFlag, "socket", "s", "", "control socket path (default: read from --conf, else /var/run/taskmaster.sock)")
	rootCmd.Flags().StringVar(&confFlag, "conf", "", "config file to read the socket path from")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
