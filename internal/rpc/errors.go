package rpc

import (
	"errors"

	"github.com/taskmaster/taskmaster/internal/config"
	"github.com/taskmaster/taskmaster/internal/process"
)

// ClassifyError maps a domain error onto the RpcError tag the wire protocol
// expects for it, per the taxonomy in §6/§7.
func ClassifyError(err error) RpcError {
	switch {
	case errors.Is(err, process.ErrAlreadyStarted):
		return RpcError{Kind: ErrProcessAlreadyStarted, Detail: err.Error()}
	case errors.Is(err, process.ErrNotRunning):
		return RpcError{Kind: ErrProcessNotRunning, Detail: err.Error()}
	case errors.Is(err, process.ErrNotFound):
		return RpcError{Kind: ErrProcessNotFound, Detail: err.Error()}
	}

	var spawnErr *process.SpawnError
	if errors.As(err, &spawnErr) {
		return RpcError{Kind: ErrProcessSpawnError, Detail: err.Error()}
	}

	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		switch parseErr.Kind {
		case "no such file":
			return RpcError{Kind: ErrFileOpenError, Detail: err.Error()}
		default:
			return RpcError{Kind: ErrFileFormat, Detail: err.Error()}
		}
	}

	return RpcError{Kind: ErrService, Detail: err.Error()}
}
