package config

import "fmt"

// ParseError is one of the five error kinds named in §6: invalid key,
// invalid value, missing command, malformed file, missing file.
type ParseError struct {
	Kind    string
	Key     string
	Raw     string
	Program string
	Detail  string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case "invalid key":
		return fmt.Sprintf("invalid key: %s", e.Key)
	case "invalid value":
		return fmt.Sprintf("invalid value: %s: %s", e.Key, e.Raw)
	case "no command":
		return "there is no command in program"
	case "invalid file format":
		if e.Detail != "" {
			return fmt.Sprintf("invalid file format: %s", e.Detail)
		}
		return "invalid file format"
	case "no such file":
		return fmt.Sprintf("no such file: %s", e.Detail)
	default:
		return e.Kind
	}
}

func errInvalidKey(key string) error {
	return &ParseError{Kind: "invalid key", Key: key}
}

func errInvalidValue(key, raw string) error {
	return &ParseError{Kind: "invalid value", Key: key, Raw: raw}
}

func errNoCommand(program string) error {
	return &ParseError{Kind: "no command", Program: program}
}

func errInvalidFileFormat(detail string) error {
	return &ParseError{Kind: "invalid file format", Detail: detail}
}

func errNoSuchFile(path string) error {
	return &ParseError{Kind: "no such file", Detail: path}
}
