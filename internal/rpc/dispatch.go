package rpc

import (
	"fmt"

	"github.com/taskmaster/taskmaster/internal/process"
)

// EngineOps is the subset of supervisor.Engine that dispatch drives. Kept as
// an interface so the rpc package does not import supervisor, matching the
// note that the RpcServer owns no reference to the engine's concrete type.
type EngineOps interface {
	Status(ids []process.ID) []process.Status
	Start(ids []process.ID) []EngineResult
	Stop(ids []process.ID) []EngineResult
	Restart(ids []process.ID) []EngineResult
	Update() error
	ReloadAll()
	KnownIds() map[process.ID]struct{}
}

// EngineResult mirrors supervisor.CommandResult without importing it.
type EngineResult struct {
	ID      process.ID
	Message string
	Err     error
}

// ParseIds expands the "all" token into the engine's known process set, or
// parses a list of "name:seq" tokens into concrete ids. Explicit tokens are
// checked for syntax only; ids the engine does not know are passed through
// and reported per id by the engine.
func ParseIds(engine EngineOps, args []string) ([]process.ID, error) {
	if len(args) == 1 && args[0] == "all" {
		known := engine.KnownIds()
		ids := make([]process.ID, 0, len(known))
		for id := range known {
			ids = append(ids, id)
		}
		return ids, nil
	}

	ids := make([]process.ID, 0, len(args))
	for _, a := range args {
		id, err := process.ParseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RegisterEngine wires every lifecycle verb against engine onto server.
func RegisterEngine(server *Server, engine EngineOps) {
	RegisterValidated(server, "status", statusValidator(engine), statusHandler(engine))
	RegisterValidated(server, "start", idsValidator(engine), lifecycleHandler(engine.Start))
	RegisterValidated(server, "stop", idsValidator(engine), lifecycleHandler(engine.Stop))
	RegisterValidated(server, "restart", idsValidator(engine), lifecycleHandler(engine.Restart))
	Register(server, "update", func(args []string) Response {
		if err := engine.Update(); err != nil {
			rerr := ClassifyError(err)
			return Response{Command: []CommandResult{{Err: &rerr}}}
		}
		return Response{Command: []CommandResult{{Ok: &OutputMessage{Message: "config reloaded"}}}}
	})
	Register(server, "reload", func(args []string) Response {
		engine.ReloadAll()
		return Response{Command: []CommandResult{{Ok: &OutputMessage{Message: "reloaded"}}}}
	})
}

func statusValidator(engine EngineOps) Validator {
	return func(req Request) (any, error) {
		return ParseIds(engine, req.Args)
	}
}

func idsValidator(engine EngineOps) Validator {
	return func(req Request) (any, error) {
		if len(req.Args) == 0 {
			return nil, fmt.Errorf("expected at least one process id or \"all\"")
		}
		return ParseIds(engine, req.Args)
	}
}

func statusHandler(engine EngineOps) Handler {
	return func(args any) Response {
		ids := args.([]process.ID)
		statuses := engine.Status(ids)
		out := make([]ProcessStatus, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, StatusFromDomain(s))
		}
		return Response{Status: out}
	}
}

func lifecycleHandler(verb func([]process.ID) []EngineResult) Handler {
	return func(args any) Response {
		ids := args.([]process.ID)
		results := verb(ids)
		out := make([]CommandResult, 0, len(results))
		for _, r := range results {
			if r.Err != nil {
				rerr := ClassifyError(r.Err)
				out = append(out, CommandResult{Err: &rerr})
				continue
			}
			out = append(out, CommandResult{Ok: &OutputMessage{Name: r.ID.String(), Message: r.Message}})
		}
		return Response{Command: out}
	}
}
