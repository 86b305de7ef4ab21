// Package ws serves the browser runner: clients send scripts over a
// websocket and receive the resulting state history.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/gridbot/internal/registry"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/storage"
)

// RunSaver persists completed runs.
type RunSaver interface {
	SaveRun(levelID string, stateIdx int, src string, res *script.Result) (storage.Run, error)
}

// Server runs scripts on behalf of websocket clients.
type Server struct {
	runner     *script.Runner
	store      RunSaver
	log        *log.Logger
	runTimeout time.Duration

	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithStore saves runs that request it.
func WithStore(store RunSaver) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRunTimeout bounds the wall time of a single run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) { s.runTimeout = d }
}

// NewServer creates a server around runner.
func NewServer(runner *script.Runner, opts ...Option) *Server {
	s := &Server{
		runner:     runner,
		log:        log.New(io.Discard),
		runTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mux returns the HTTP routes: the websocket at /ws and the level list at
// /levels.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.Handler())
	mux.HandleFunc("GET /levels", s.handleLevels)
	return mux
}

func (s *Server) handleLevels(rw http.ResponseWriter, r *http.Request) {
	infos := registry.List()
	out := make([]LevelSummary, 0, len(infos))
	for _, info := range infos {
		lvl, err := registry.Create(info.ID)
		if err != nil {
			continue
		}
		out = append(out, LevelSummary{
			ID:        lvl.ID(),
			Name:      lvl.Name(),
			Objective: lvl.Objective(),
			States:    len(lvl.InitialStates()),
			Disabled:  lvl.DisabledFunctions(),
		})
	}
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(out); err != nil {
		s.log.Warn("write level list", "err", err)
	}
}

// Handler upgrades the connection and serves RUN requests until the client
// goes away. Requests on one connection are handled in order.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 8)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		s.log.Info("client connected", "remote", r.RemoteAddr)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			reply := s.handle(ctx, msg)
			b, err := json.Marshal(reply)
			if err != nil {
				s.log.Error("encode reply", "err", err)
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}

		cancel()
		<-done
		s.log.Info("client disconnected", "remote", r.RemoteAddr)
	}
}

// handle answers one raw message.
func (s *Server) handle(ctx context.Context, msg []byte) any {
	base, err := DecodeBase(msg)
	if err != nil {
		return ErrorMsg{Base: Base{Type: TypeError}, Message: "malformed message"}
	}
	if base.Type != TypeRun {
		return ErrorMsg{Base: Base{Type: TypeError, ID: base.ID}, Message: "unknown message type " + base.Type}
	}

	var req RunMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return ErrorMsg{Base: Base{Type: TypeError, ID: base.ID}, Message: "malformed RUN message"}
	}
	return s.Run(ctx, req)
}

// Run executes a RUN request and returns the RESULT or ERROR reply.
func (s *Server) Run(ctx context.Context, req RunMsg) any {
	fail := func(msg string) ErrorMsg {
		return ErrorMsg{Base: Base{Type: TypeError, ID: req.ID}, Message: msg}
	}

	lvl, err := registry.Create(req.Level)
	if err != nil {
		return fail(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx, lvl, req.StateIndex, req.Script)
	var serr *script.Error
	switch {
	case errors.As(err, &serr):
		s.log.Debug("script error", "level", req.Level, "err", serr)
		return ErrorMsg{Base: Base{Type: TypeError, ID: req.ID}, Script: serr}
	case err != nil:
		return fail(err.Error())
	}

	reply := ResultMsg{Base: Base{Type: TypeResult, ID: req.ID}, Result: res}
	if req.Save && s.store != nil {
		run, err := s.store.SaveRun(req.Level, req.StateIndex, req.Script, res)
		if err != nil {
			s.log.Error("save run", "level", req.Level, "err", err)
		} else {
			reply.RunID = run.ID
		}
	}
	s.log.Info("run", "level", req.Level, "outcome", res.Outcome.String(), "ticks", res.Stats.TicksTaken)
	return reply
}
