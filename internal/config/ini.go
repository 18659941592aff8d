package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/taskmaster/taskmaster/internal/process"
)

var sectionHeaderRe = regexp.MustCompile(`^\[([a-zA-Z_-]+)(?::([^\]]+))?\]$`)

// programKeys lists every key recognized inside a [program:<name>] section.
var programKeys = map[string]bool{
	"command":        true,
	"numprocs":       true,
	"autostart":      true,
	"autorestart":    true,
	"exitcodes":      true,
	"startsecs":      true,
	"startretries":   true,
	"stopsignal":     true,
	"stopwaitsecs":   true,
	"stdout_logfile": true,
	"stderr_logfile": true,
	"directory":      true,
	"umask":          true,
	"user":           true,
	"environment":    true,
}

var generalKeys = map[string]bool{
	"sockfile":    true,
	"pidfile":     true,
	"loglevel":    true,
	"logformat":   true,
	"logfile":     true,
	"metricsaddr": true,
}

// LoadFile reads and parses an INI file at path into a ConfigModel, applying
// defaults and validating it.
func LoadFile(path string) (*ConfigModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNoSuchFile(path)
		}
		return nil, errNoSuchFile(path)
	}
	return Parse(data)
}

// Parse parses raw INI bytes into a validated ConfigModel.
func Parse(data []byte) (*ConfigModel, error) {
	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

type rawSection struct {
	kind string // "general" or "program"
	name string
	opts map[string]string
}

func parseRaw(data []byte) (*ConfigModel, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var sections []rawSection
	var cur *rawSection
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		stripped := stripInlineComment(line)
		trimmed := strings.TrimSpace(stripped)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := sectionHeaderRe.FindStringSubmatch(trimmed); m != nil {
			kind, name := m[1], m[2]
			if kind != "general" && kind != "program" {
				return nil, errInvalidFileFormat(fmt.Sprintf("unknown section %q at line %d", kind, lineNum))
			}
			if kind == "program" && name == "" {
				return nil, errInvalidFileFormat(fmt.Sprintf("program section missing name at line %d", lineNum))
			}
			sections = append(sections, rawSection{kind: kind, name: name, opts: make(map[string]string)})
			cur = &sections[len(sections)-1]
			continue
		}

		key, value, found := strings.Cut(trimmed, "=")
		if !found {
			return nil, errInvalidFileFormat(fmt.Sprintf("expected key=value at line %d", lineNum))
		}
		if cur == nil {
			return nil, errInvalidFileFormat(fmt.Sprintf("key=value outside any section at line %d", lineNum))
		}
		cur.opts[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errInvalidFileFormat(err.Error())
	}

	model := &ConfigModel{Programs: make(map[string]ProgramConfig)}
	for _, s := range sections {
		switch s.kind {
		case "general":
			for k := range s.opts {
				if !generalKeys[k] {
					return nil, errInvalidKey(k)
				}
			}
			model.General.Sockfile = s.opts["sockfile"]
			model.General.Pidfile = s.opts["pidfile"]
			model.General.LogLevel = s.opts["loglevel"]
			model.General.LogFormat = s.opts["logformat"]
			model.General.Logfile = s.opts["logfile"]
			model.General.MetricsAddr = s.opts["metricsaddr"]
		case "program":
			prog, err := parseProgramSection(s.name, s.opts)
			if err != nil {
				return nil, err
			}
			model.Programs[s.name] = prog
		}
	}
	return model, nil
}

func parseProgramSection(name string, opts map[string]string) (ProgramConfig, error) {
	for k := range opts {
		if !programKeys[k] {
			return ProgramConfig{}, errInvalidKey(k)
		}
	}

	p := ProgramConfig{Name: name, Umask: -1}

	rawCmd, hasCmd := opts["command"]
	if !hasCmd || strings.TrimSpace(rawCmd) == "" {
		return ProgramConfig{}, errNoCommand(name)
	}
	p.Command = commandFromLine(rawCmd)

	if v, ok := opts["numprocs"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("numprocs", v)
		}
		p.Numprocs = int(n)
	}

	if v, ok := opts["autostart"]; ok {
		switch v {
		case "true":
			p.Autostart = true
		case "false":
			p.Autostart = false
		default:
			return ProgramConfig{}, errInvalidValue("autostart", v)
		}
	}

	if v, ok := opts["autorestart"]; ok {
		switch v {
		case "unexpected":
			p.Autorestart = process.AutorestartUnexpected
		case "always":
			p.Autorestart = process.AutorestartAlways
		case "never":
			p.Autorestart = process.AutorestartNever
		default:
			return ProgramConfig{}, errInvalidValue("autorestart", v)
		}
	}

	if v, ok := opts["exitcodes"]; ok {
		codes, err := parseIntList(v)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("exitcodes", v)
		}
		p.ExitCodes = codes
	}

	if v, ok := opts["startsecs"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("startsecs", v)
		}
		p.StartSecs = int(n)
	}

	if v, ok := opts["startretries"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("startretries", v)
		}
		p.StartRetries = int(n)
	}

	if v, ok := opts["stopwaitsecs"]; ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("stopwaitsecs", v)
		}
		p.StopWaitSecs = int(n)
	}

	if v, ok := opts["stopsignal"]; ok {
		if _, recognized := process.ParseSignalName(v); !recognized {
			return ProgramConfig{}, errInvalidValue("stopsignal", v)
		}
		p.StopSignal = v
	}

	if v, ok := opts["umask"]; ok {
		n, err := strconv.ParseInt(v, 8, 32)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("umask", v)
		}
		p.Umask = int(n) & 0o777
	}

	p.StdoutLogfile = opts["stdout_logfile"]
	p.StderrLogfile = opts["stderr_logfile"]
	p.Directory = opts["directory"]
	p.User = opts["user"]

	if v, ok := opts["environment"]; ok {
		env, err := parseEnvList(v)
		if err != nil {
			return ProgramConfig{}, errInvalidValue("environment", v)
		}
		p.Environment = env
	}

	return p, nil
}

// stripInlineComment removes everything from the first unquoted ';' onward.
func stripInlineComment(line string) string {
	inSingle, inDouble := false, false
	for i, ch := range line {
		switch ch {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}

func parseIntList(v string) ([]int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseEnvList(v string) (map[string]string, error) {
	v = strings.TrimSpace(v)
	out := make(map[string]string)
	if v == "" {
		return out, nil
	}
	for _, pair := range strings.Split(v, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return nil, fmt.Errorf("malformed K=V pair %q", pair)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}
	return out, nil
}

// WriteINI serializes a ConfigModel back to INI text, supporting the
// round-trip property: Parse(WriteINI(m)) == m for every supported key.
func WriteINI(m *ConfigModel) string {
	var b strings.Builder
	b.WriteString("[general]\n")
	if m.General.Sockfile != "" {
		fmt.Fprintf(&b, "sockfile = %s\n", m.General.Sockfile)
	}
	if m.General.Pidfile != "" {
		fmt.Fprintf(&b, "pidfile = %s\n", m.General.Pidfile)
	}
	if m.General.LogLevel != "" {
		fmt.Fprintf(&b, "loglevel = %s\n", m.General.LogLevel)
	}
	if m.General.LogFormat != "" {
		fmt.Fprintf(&b, "logformat = %s\n", m.General.LogFormat)
	}
	if m.General.Logfile != "" {
		fmt.Fprintf(&b, "logfile = %s\n", m.General.Logfile)
	}
	if m.General.MetricsAddr != "" {
		fmt.Fprintf(&b, "metricsaddr = %s\n", m.General.MetricsAddr)
	}

	names := make([]string, 0, len(m.Programs))
	for name := range m.Programs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := m.Programs[name]
		fmt.Fprintf(&b, "\n[program:%s]\n", name)
		fmt.Fprintf(&b, "command = %s\n", strings.Join(p.Command, " "))
		fmt.Fprintf(&b, "numprocs = %d\n", p.Numprocs)
		fmt.Fprintf(&b, "autostart = %t\n", p.Autostart)
		fmt.Fprintf(&b, "autorestart = %s\n", p.Autorestart.String())
		fmt.Fprintf(&b, "startsecs = %d\n", p.StartSecs)
		fmt.Fprintf(&b, "startretries = %d\n", p.StartRetries)
		if len(p.ExitCodes) > 0 {
			codes := make([]string, len(p.ExitCodes))
			for i, c := range p.ExitCodes {
				codes[i] = strconv.Itoa(c)
			}
			fmt.Fprintf(&b, "exitcodes = %s\n", strings.Join(codes, ","))
		}
		if p.StopSignal != "" {
			fmt.Fprintf(&b, "stopsignal = %s\n", p.StopSignal)
		}
		fmt.Fprintf(&b, "stopwaitsecs = %d\n", p.StopWaitSecs)
		if p.StdoutLogfile != "" {
			fmt.Fprintf(&b, "stdout_logfile = %s\n", p.StdoutLogfile)
		}
		if p.StderrLogfile != "" {
			fmt.Fprintf(&b, "stderr_logfile = %s\n", p.StderrLogfile)
		}
		if p.Directory != "" {
			fmt.Fprintf(&b, "directory = %s\n", p.Directory)
		}
		if p.Umask >= 0 {
			fmt.Fprintf(&b, "umask = %03o\n", p.Umask)
		}
		if p.User != "" {
			fmt.Fprintf(&b, "user = %s\n", p.User)
		}
		if len(p.Environment) > 0 {
			keys := make([]string, 0, len(p.Environment))
			for k := range p.Environment {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = fmt.Sprintf("%s=%s", k, p.Environment[k])
			}
			fmt.Fprintf(&b, "environment = %s\n", strings.Join(pairs, ","))
		}
	}

	return b.String()
}
