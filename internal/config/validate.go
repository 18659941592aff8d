package config

import "strconv"

// Validate checks semantic constraints not already enforced while parsing
// individual key values, and returns every violation found.
func Validate(cfg *ConfigModel) []error {
	var errs []error

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, errInvalidValue("loglevel", cfg.General.LogLevel))
	}
	switch cfg.General.LogFormat {
	case "", "json", "text":
	default:
		errs = append(errs, errInvalidValue("logformat", cfg.General.LogFormat))
	}

	for name, p := range cfg.Programs {
		if p.Numprocs < 1 {
			errs = append(errs, errInvalidValue("numprocs", strconv.Itoa(p.Numprocs)))
		}
		if len(p.Command) == 0 {
			errs = append(errs, errNoCommand(name))
		}
		if p.StartRetries < 0 {
			errs = append(errs, errInvalidValue("startretries", strconv.Itoa(p.StartRetries)))
		}
	}

	return errs
}
