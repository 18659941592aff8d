package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"
)

// readTimeout bounds the one blocking read of a request per §5, so a silent
// client cannot stall the control loop.
const readTimeout = 1 * time.Second

// acceptWait bounds how long AcceptOne waits for a connection when none is
// pending.
const acceptWait = 1 * time.Millisecond

// Handler produces a Response from validated, typed arguments.
type Handler func(args any) Response

// Validator converts a raw Request into typed arguments, or rejects it.
type Validator func(req Request) (any, error)

type registration struct {
	validator Validator
	handler   Handler
}

// Server binds a Unix stream socket at sockfile, accepts at most one
// request per tick via AcceptOne, and dispatches it to a registered verb
// handler.
type Server struct {
	sockfile string
	listener *net.UnixListener
	logger   *slog.Logger
	verbs    map[string]registration
}

// NewServer binds the control socket, setting filesystem mode 0600 as the
// local-only access gate.
func NewServer(sockfile string, logger *slog.Logger) (*Server, error) {
	_ = os.Remove(sockfile)

	addr, err := net.ResolveUnixAddr("unix", sockfile)
	if err != nil {
		return nil, fmt.Errorf("resolve socket address: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", sockfile, err)
	}
	if err := os.Chmod(sockfile, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod %s: %w", sockfile, err)
	}

	return &Server{
		sockfile: sockfile,
		listener: ln,
		logger:   logger,
		verbs:    make(map[string]registration),
	}, nil
}

// Register binds a verb to a handler with no argument validation: the
// handler receives the raw []string args.
func Register(s *Server, verb string, handler func(args []string) Response) {
	s.verbs[verb] = registration{
		handler: func(args any) Response { return handler(args.([]string)) },
	}
}

// RegisterValidated binds a verb to a validator/handler pair: the validator
// converts raw args into typed arguments before the handler runs.
func RegisterValidated(s *Server, verb string, validator Validator, handler Handler) {
	s.verbs[verb] = registration{validator: validator, handler: handler}
}

// AcceptOne is effectively non-blocking: if no client is pending it returns
// after at most acceptWait. Otherwise it reads exactly one Request,
// validates, dispatches, writes exactly one Response, and closes the
// connection.
func (s *Server) AcceptOne() {
	// A deadline already in the past makes Accept fail before it looks at
	// the backlog, so allow a tiny window in which a pending connection is
	// picked up.
	s.listener.SetDeadline(time.Now().Add(acceptWait))
	conn, err := s.listener.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return
		}
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			s.logger.Warn("accept failed", "error", err)
		}
		return
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(readTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.writeError(conn, RpcError{Kind: ErrInvalidRequest, Detail: err.Error()})
		return
	}

	reg, ok := s.verbs[req.Method]
	if !ok {
		s.writeError(conn, RpcError{Kind: ErrInvalidRequest, Detail: "unknown method: " + req.Method})
		return
	}

	var args any = req.Args
	if reg.validator != nil {
		validated, err := reg.validator(req)
		if err != nil {
			s.writeError(conn, RpcError{Kind: ErrInvalidRequest, Detail: err.Error()})
			return
		}
		args = validated
	}

	resp := reg.handler(args)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(conn net.Conn, rerr RpcError) {
	resp := Response{Command: []CommandResult{{Err: &rerr}}}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn("write error response failed", "error", err)
	}
}

// Close removes the socket file. Idempotent, so shutdown can call it even
// after a prior failed bind.
func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.sockfile)
	return err
}
