package supervisor

import (
	"github.com/taskmaster/taskmaster/internal/process"
	"github.com/taskmaster/taskmaster/internal/rpc"
)

// rpcAdapter satisfies rpc.EngineOps, translating between the engine's
// CommandResult and the rpc package's verb-agnostic EngineResult so that
// neither package needs to import the other's concrete types.
type rpcAdapter struct {
	engine *Engine
}

// NewRpcAdapter wraps engine for registration against an rpc.Server.
func NewRpcAdapter(engine *Engine) rpc.EngineOps {
	return rpcAdapter{engine: engine}
}

func (a rpcAdapter) Status(ids []process.ID) []process.Status {
	return a.engine.Status(ids)
}

func (a rpcAdapter) Start(ids []process.ID) []rpc.EngineResult {
	return convertResults(a.engine.Start(ids))
}

func (a rpcAdapter) Stop(ids []process.ID) []rpc.EngineResult {
	return convertResults(a.engine.Stop(ids))
}

func (a rpcAdapter) Restart(ids []process.ID) []rpc.EngineResult {
	return convertResults(a.engine.Restart(ids))
}

func (a rpcAdapter) Update() error {
	return a.engine.Update()
}

func (a rpcAdapter) ReloadAll() {
	a.engine.ReloadAll()
}

func (a rpcAdapter) KnownIds() map[process.ID]struct{} {
	return a.engine.KnownIds()
}

func convertResults(results []CommandResult) []rpc.EngineResult {
	out := make([]rpc.EngineResult, 0, len(results))
	for _, r := range results {
		out = append(out, rpc.EngineResult{ID: r.ID, Message: r.Message, Err: r.Err})
	}
	return out
}
