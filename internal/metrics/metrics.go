// Package metrics collects and exposes Prometheus metrics for the
// supervisor. The HTTP listener that serves them is optional, off by
// default, and loopback-only; it carries no administrative control surface
// and so does not fall under the no-remote-control non-goal.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every taskmaster Prometheus metric.
type Collector struct {
	registry *prometheus.Registry

	ProcessState      *prometheus.GaugeVec
	ProcessStartTotal *prometheus.CounterVec
	ProcessExitTotal  *prometheus.CounterVec
	ProcessUptime     *prometheus.GaugeVec

	SupervisorUptime       prometheus.Gauge
	SupervisorProcesses    *prometheus.GaugeVec
	ConfigReloadTotal      prometheus.Counter
	ConfigReloadErrorTotal prometheus.Counter
	BuildInfo              *prometheus.GaugeVec
}

// New creates and registers every taskmaster metric.
func New() *Collector {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		ProcessState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskmaster_process_state",
				Help: "Current state of a managed process (numeric state code).",
			},
			[]string{"id"},
		),

		ProcessStartTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmaster_process_start_total",
				Help: "Total number of times a process has been started.",
			},
			[]string{"id"},
		),

		ProcessExitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskmaster_process_exit_total",
				Help: "Total number of process exits.",
			},
			[]string{"id", "expected"},
		),

		ProcessUptime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskmaster_process_uptime_seconds",
				Help: "Uptime of a managed process in seconds.",
			},
			[]string{"id"},
		),

		SupervisorUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskmaster_supervisor_uptime_seconds",
				Help: "Uptime of the taskmaster daemon in seconds.",
			},
		),

		SupervisorProcesses: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskmaster_supervisor_processes",
				Help: "Number of processes per state.",
			},
			[]string{"state"},
		),

		ConfigReloadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskmaster_supervisor_config_reload_total",
				Help: "Total number of config reloads.",
			},
		),

		ConfigReloadErrorTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskmaster_supervisor_config_reload_errors_total",
				Help: "Total number of failed config reloads.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskmaster_info",
				Help: "Build information about taskmaster.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.ProcessState,
		c.ProcessStartTotal,
		c.ProcessExitTotal,
		c.ProcessUptime,
		c.SupervisorUptime,
		c.SupervisorProcesses,
		c.ConfigReloadTotal,
		c.ConfigReloadErrorTotal,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetProcessState updates the state gauge for a process.
func (c *Collector) SetProcessState(id string, stateCode int) {
	c.ProcessState.WithLabelValues(id).Set(float64(stateCode))
}

// IncProcessStart increments the start counter for a process.
func (c *Collector) IncProcessStart(id string) {
	c.ProcessStartTotal.WithLabelValues(id).Inc()
}

// IncProcessExit increments the exit counter for a process.
func (c *Collector) IncProcessExit(id string, expected bool) {
	label := "false"
	if expected {
		label = "true"
	}
	c.ProcessExitTotal.WithLabelValues(id, label).Inc()
}

// SetProcessUptime sets the uptime gauge for a process.
func (c *Collector) SetProcessUptime(id string, seconds float64) {
	c.ProcessUptime.WithLabelValues(id).Set(seconds)
}

// SetSupervisorUptime sets the supervisor uptime gauge.
func (c *Collector) SetSupervisorUptime(seconds float64) {
	c.SupervisorUptime.Set(seconds)
}

// SetProcessCount sets the count of processes in a given state.
func (c *Collector) SetProcessCount(state string, count int) {
	c.SupervisorProcesses.WithLabelValues(state).Set(float64(count))
}

// IncConfigReload increments the config reload counter.
func (c *Collector) IncConfigReload() {
	c.ConfigReloadTotal.Inc()
}

// IncConfigReloadError increments the config reload error counter.
func (c *Collector) IncConfigReloadError() {
	c.ConfigReloadErrorTotal.Inc()
}

// RemoveProcess cleans up metrics for a process removed into trash.
func (c *Collector) RemoveProcess(id string) {
	c.ProcessState.DeleteLabelValues(id)
	c.ProcessStartTotal.DeleteLabelValues(id)
	c.ProcessExitTotal.DeletePartialMatch(prometheus.Labels{"id": id})
	c.ProcessUptime.DeleteLabelValues(id)
}
