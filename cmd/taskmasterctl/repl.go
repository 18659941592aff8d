package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/taskmaster/taskmaster/internal/config"

	"github.com/spf13/cobra"
)

var verbHelp = map[string]string{
	"status":   "status [id|all]...  -- show process status, all ids if none given",
	"start":    "start <id|all>...    -- start one or more processes",
	"stop":     "stop <id|all>...     -- stop one or more processes",
	"restart":  "restart <id|all>...  -- stop then start one or more processes",
	"update":   "update               -- reload config and apply differences",
	"reload":   "reload               -- restart every process from current config",
	"shutdown": "shutdown             -- stop every process and exit the daemon",
	"open":     "open <path>          -- switch to a different control socket",
	"version":  "version              -- print the daemon version",
	"help":     "help [verb]          -- list verbs, or describe one",
	"quit":     "quit | exit          -- leave taskmasterctl",
}

var verbOrder = []string{
	"status", "start", "stop", "restart", "update", "reload",
	"shutdown", "open", "version", "help", "quit",
}

func runRepl(cmd *cobra.Command, args []string) error {
	client := &Client{Socket: resolveSocket()}
	out := cmd.OutOrStdout()
	color := isTerminal(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "taskmasterctl> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb, rest := fields[0], fields[1:]

		switch verb {
		case "quit", "exit":
			return nil
		case "help":
			printHelp(out, rest)
			continue
		case "open":
			if len(rest) != 1 {
				fmt.Fprintln(out, "usage: open <path>")
				continue
			}
			client.Socket = rest[0]
			continue
		}

		if err := dispatch(client, out, color, verb, rest); err != nil {
			fmt.Fprintln(out, err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func resolveSocket() string {
	if socketFlag != "" {
		return socketFlag
	}
	if confFlag != "" {
		if model, err := config.LoadFile(confFlag); err == nil && model.General.Sockfile != "" {
			return model.General.Sockfile
		}
	}
	return "/var/run/taskmaster.sock"
}

func dispatch(client *Client, out io.Writer, color bool, verb string, args []string) error {
	if err := validateArgs(verb, args); err != nil {
		return err
	}

	switch verb {
	case "status":
		return doStatus(client, out, color, args)
	case "start", "stop", "restart":
		return doLifecycle(client, out, verb, args)
	case "update":
		return doSimple(client, out, "update")
	case "reload":
		return doSimple(client, out, "reload")
	case "shutdown":
		return doSimple(client, out, "shutdown")
	case "version":
		return doVersion(client, out)
	default:
		return fmt.Errorf("unknown verb %q (try \"help\")", verb)
	}
}

// validateArgs applies the client-side syntactic check §6 requires: every
// argument to a lifecycle verb must be "all" or a "name:seq" token.
func validateArgs(verb string, args []string) error {
	switch verb {
	case "start", "stop", "restart":
		if len(args) == 0 {
			return fmt.Errorf("%s requires at least one id or \"all\"", verb)
		}
	}
	switch verb {
	case "status", "start", "stop", "restart":
		for _, a := range args {
			if a == "all" {
				continue
			}
			if !strings.Contains(a, ":") {
				return fmt.Errorf("invalid argument %q: expected \"all\" or \"name:seq\"", a)
			}
		}
	}
	return nil
}

func doStatus(client *Client, out io.Writer, color bool, args []string) error {
	resp, err := client.Call("status", args)
	if err != nil {
		return err
	}
	return formatStatusTable(resp.Status, out, color)
}

func doLifecycle(client *Client, out io.Writer, verb string, args []string) error {
	resp, err := client.Call(verb, args)
	if err != nil {
		return err
	}
	for _, r := range resp.Command {
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "%s: %s\n", r.Err.Kind, r.Err.Detail)
		case r.Ok != nil:
			fmt.Fprintf(out, "%s: %s\n", r.Ok.Name, r.Ok.Message)
		}
	}
	return nil
}

func doSimple(client *Client, out io.Writer, verb string) error {
	resp, err := client.Call(verb, nil)
	if err != nil {
		return err
	}
	for _, r := range resp.Command {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: %s\n", r.Err.Kind, r.Err.Detail)
			continue
		}
		if r.Ok != nil {
			fmt.Fprintln(out, r.Ok.Message)
		}
	}
	return nil
}

func doVersion(client *Client, out io.Writer) error {
	resp, err := client.Call("version", nil)
	if err != nil {
		return err
	}
	for _, r := range resp.Command {
		if r.Ok != nil {
			fmt.Fprintln(out, r.Ok.Message)
		}
	}
	return nil
}

func printHelp(out io.Writer, args []string) {
	if len(args) == 1 {
		if h, ok := verbHelp[args[0]]; ok {
			fmt.Fprintln(out, h)
			return
		}
		fmt.Fprintf(out, "no such verb %q\n", args[0])
		return
	}
	for _, v := range verbOrder {
		fmt.Fprintln(out, verbHelp[v])
	}
}
