package config

import "testing"

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := &ConfigModel{General: GeneralConfig{LogLevel: "verbose"}, Programs: map[string]ProgramConfig{}}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one violation", errs)
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := &ConfigModel{General: GeneralConfig{LogFormat: "xml"}, Programs: map[string]ProgramConfig{}}
	errs := Validate(cfg)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one violation", errs)
	}
}

func TestValidateAcceptsWellFormedModel(t *testing.T) {
	cfg := &ConfigModel{
		General: GeneralConfig{LogLevel: "info", LogFormat: "json"},
		Programs: map[string]ProgramConfig{
			"web": {Name: "web", Command: []string{"/bin/true"}, Numprocs: 1},
		},
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
}

func TestValidateCollectsMultipleProgramViolations(t *testing.T) {
	cfg := &ConfigModel{
		Programs: map[string]ProgramConfig{
			"bad": {Name: "bad", Numprocs: 0, StartRetries: -1},
		},
	}
	errs := Validate(cfg)
	if len(errs) != 3 {
		t.Fatalf("errs = %v, want 3 (numprocs, no command, startretries)", errs)
	}
}
