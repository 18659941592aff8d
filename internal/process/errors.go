package process

import "errors"

// Sentinel errors surfaced by Start/Stop, mapped onto RpcError tags by the
// rpc package. Precondition violations and lookup failures are reported
// this way rather than as ad hoc strings so callers can classify them with
// errors.Is.
var (
	ErrAlreadyStarted = errors.New("process already started")
	ErrNotRunning     = errors.New("process not running")
	ErrNotFound       = errors.New("process not found")
)

// SpawnError wraps a failure from the Spawner, distinguished from the
// sentinels above because it carries the underlying OS error.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return "spawn failed: " + e.Err.Error() }
func (e *SpawnError) Unwrap() error { return e.Err }
