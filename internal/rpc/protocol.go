// Package rpc implements the control-socket wire protocol: one JSON request
// per connection, one JSON response, then close.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/taskmaster/taskmaster/internal/process"
)

// Request is the single message a client sends per connection.
type Request struct {
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

// OutputMessage is the success payload for a single id's command result.
type OutputMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ErrorKind is one of the tagged RpcError variants from §6.
type ErrorKind string

const (
	ErrFileFormat            ErrorKind = "FileFormat"
	ErrFileOpenError         ErrorKind = "FileOpenError"
	ErrService               ErrorKind = "Service"
	ErrInvalidRequest        ErrorKind = "InvalidRequest"
	ErrProcessNotFound       ErrorKind = "ProcessNotFound"
	ErrProcessNotRunning     ErrorKind = "ProcessNotRunning"
	ErrProcessAlreadyStarted ErrorKind = "ProcessAlreadyStarted"
	ErrProcessSpawnError     ErrorKind = "ProcessSpawnError"
)

// RpcError is a tagged variant carrying one descriptive string, serialized
// as {"<Kind>": "<detail>"}.
type RpcError struct {
	Kind   ErrorKind
	Detail string
}

func (e RpcError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{string(e.Kind): e.Detail})
}

func (e *RpcError) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, v := range m {
		e.Kind = ErrorKind(k)
		e.Detail = v
		return nil
	}
	return fmt.Errorf("empty RpcError object")
}

// CommandResult is either an Ok(OutputMessage) or an Err(RpcError).
type CommandResult struct {
	Ok  *OutputMessage `json:"Ok,omitempty"`
	Err *RpcError      `json:"Err,omitempty"`
}

// ProcessStatus is one process's status snapshot.
type ProcessStatus struct {
	Name        string `json:"name"`
	Seq         int    `json:"seq"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// Response is one of the two shapes the server ever writes.
type Response struct {
	Command []CommandResult `json:"Command,omitempty"`
	Status  []ProcessStatus `json:"Status,omitempty"`
}

// StatusFromDomain converts a process.Status into its wire form.
func StatusFromDomain(s process.Status) ProcessStatus {
	return ProcessStatus{
		Name:        s.ID.Name,
		Seq:         s.ID.Seq,
		State:       s.State.String(),
		Description: s.Description,
	}
}
