package config

import (
	"fmt"
	"os"
)

// DefaultSearchPaths is the ordered list of config file paths to try.
var DefaultSearchPaths = []string{
	"./taskmaster.ini",
	"/etc/taskmaster/taskmaster.ini",
	"/etc/taskmaster.ini",
}

// Resolve finds the config file path by checking, in order:
//  1. Explicit path (the daemon's optional [conf_file] argument)
//  2. TASKMASTER_CONFIG environment variable
//  3. DefaultSearchPaths
//
// Returns the resolved path or an error.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errNoSuchFile(explicit)
		}
		return explicit, nil
	}

	if env := os.Getenv("TASKMASTER_CONFIG"); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", errNoSuchFile(env)
		}
		return env, nil
	}

	for _, p := range DefaultSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found; searched %v", DefaultSearchPaths)
}
