package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/taskmaster/taskmaster/internal/config"
	"github.com/taskmaster/taskmaster/internal/events"
	"github.com/taskmaster/taskmaster/internal/logging"
	"github.com/taskmaster/taskmaster/internal/metrics"
	"github.com/taskmaster/taskmaster/internal/process"
	"github.com/taskmaster/taskmaster/internal/rpc"
	"github.com/taskmaster/taskmaster/internal/supervisor"
	"github.com/taskmaster/taskmaster/internal/version"

	"github.com/spf13/cobra"
)

var (
	pidfileFlag     string
	daemonizeFlag   bool
	metricsAddrFlag string
)

func init() {
	rootCmd.Flags().StringVarP(&pidfileFlag, "pidfile", "p", "", "PID file path (overrides config)")
	rootCmd.Flags().BoolVarP(&daemonizeFlag, "daemonize", "d", false, "run in background (double-fork)")
	rootCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "loopback address for the optional read-only metrics listener (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	explicit := ""
	if len(args) == 1 {
		explicit = args[0]
	}

	cfgPath, err := config.Resolve(explicit)
	if err != nil {
		return err
	}

	model, err := config.LoadFile(cfgPath)
	if err != nil {
		return err
	}

	if pidfileFlag != "" {
		model.General.Pidfile = pidfileFlag
	}
	if metricsAddrFlag != "" {
		model.General.MetricsAddr = metricsAddrFlag
	}

	logger, cleanup, err := logging.DaemonLogger(model.General.LogLevel, model.General.LogFormat, model.General.Logfile)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := supervisor.ValidateSocketPermissions(model.General.Sockfile); err != nil {
		return err
	}

	if daemonizeFlag {
		shouldExit, err := supervisor.Daemonize(logger)
		if err != nil {
			return fmt.Errorf("daemonize failed: %w", err)
		}
		if shouldExit {
			os.Exit(0)
		}
	}

	if err := supervisor.WritePIDFile(model.General.Pidfile); err != nil {
		return err
	}
	defer supervisor.RemovePIDFile(model.General.Pidfile)

	bus := events.NewBus(logger)
	mcs := metrics.New()
	mcs.SetBuildInfo(version.Version, resolvedGoVersion())

	engine := supervisor.New(cfgPath, *model, process.ExecSpawner{}, bus, mcs, logger)
	engine.AutostartAll()

	server, err := rpc.NewServer(model.General.Sockfile, logger)
	if err != nil {
		return err
	}
	defer server.Close()
	rpc.RegisterEngine(server, supervisor.NewRpcAdapter(engine))
	rpc.Register(server, "version", func(args []string) rpc.Response {
		msg := fmt.Sprintf("taskmasterd %s (commit %s, built %s, %s)", version.Version, version.Commit, version.Date, resolvedGoVersion())
		return rpc.Response{Command: []rpc.CommandResult{{Ok: &rpc.OutputMessage{Name: "version", Message: msg}}}}
	})

	if model.General.MetricsAddr != "" {
		startMetricsListener(model.General.MetricsAddr, mcs, logger)
	}

	signals := supervisor.NewSignalQueue()
	defer signals.Stop()

	loop := supervisor.NewControlLoop(engine, server, signals, logger)
	rpc.Register(server, "shutdown", func(args []string) rpc.Response {
		loop.RequestShutdown()
		return rpc.Response{Command: []rpc.CommandResult{{Ok: &rpc.OutputMessage{Message: "shutdown initiated"}}}}
	})
	loop.Run()

	return nil
}

// startMetricsListener binds a plain net/http server to addr, which should be
// a loopback address: this is read-only telemetry, never a control surface.
func startMetricsListener(addr string, mcs *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mcs.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics listener stopped", "error", err)
		}
	}()
}
