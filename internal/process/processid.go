package process

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies one managed child: a program name plus an ordinal in
// [0, numprocs). Equality and hashing are on both fields, so ID is usable
// directly as a map key.
type ID struct {
	Name string
	Seq  int
}

// String renders the text form "name:seq".
func (id ID) String() string {
	return fmt.Sprintf("%s:%d", id.Name, id.Seq)
}

// ParseID parses the text form "name:seq" produced by String.
func ParseID(s string) (ID, error) {
	name, seqStr, ok := strings.Cut(s, ":")
	if !ok {
		return ID{}, fmt.Errorf("invalid process id %q: expected name:seq", s)
	}
	seq, err := strconv.Atoi(seqStr)
	if err != nil || seq < 0 {
		return ID{}, fmt.Errorf("invalid process id %q: seq must be a nonnegative integer", s)
	}
	return ID{Name: name, Seq: seq}, nil
}
