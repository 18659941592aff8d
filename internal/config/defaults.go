package config

// ApplyDefaults fills in zero-value fields with sensible defaults, mirroring
// the classic supervisord defaults for fields the config file omits.
func ApplyDefaults(cfg *ConfigModel) {
	if cfg.General.Sockfile == "" {
		cfg.General.Sockfile = "/var/run/taskmaster.sock"
	}
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}

	for name, p := range cfg.Programs {
		if p.Numprocs == 0 {
			p.Numprocs = 1
		}
		if p.StartSecs == 0 {
			p.StartSecs = 1
		}
		if p.StartRetries == 0 {
			p.StartRetries = 3
		}
		if len(p.ExitCodes) == 0 {
			p.ExitCodes = []int{0}
		}
		if p.StopSignal == "" {
			p.StopSignal = "TERM"
		}
		if p.StopWaitSecs == 0 {
			p.StopWaitSecs = 10
		}
		cfg.Programs[name] = p
	}
}
