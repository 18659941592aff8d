package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/taskmaster/taskmaster/internal/rpc"
)

func formatStatusTable(statuses []rpc.ProcessStatus, w io.Writer, color bool) error {
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Name != statuses[j].Name {
			return statuses[i].Name < statuses[j].Name
		}
		return statuses[i].Seq < statuses[j].Seq
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tSTATE\tDESCRIPTION\n")

	for _, s := range statuses {
		state := s.State
		if color {
			state = colorState(s.State)
		}
		fmt.Fprintf(tw, "%s:%d\t%s\t%s\n", s.Name, s.Seq, state, s.Description)
	}
	return tw.Flush()
}

func colorState(state string) string {
	switch state {
	case "Running":
		return "\033[32m" + state + "\033[0m"
	case "Fatal":
		return "\033[31m" + state + "\033[0m"
	case "Starting", "Backoff", "Stopping":
		return "\033[33m" + state + "\033[0m"
	default:
		return state
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, _ := f.Stat()
		return stat != nil && (stat.Mode()&os.ModeCharDevice) != 0
	}
	return false
}
