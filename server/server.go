// Package server exposes the HTTP surface: the local token endpoints, the
// federated callback, and a bearer-guarded resource API.
package server

import (
	"net/http"

	"github.com/cleanstack/authcore/auth"
	"github.com/cleanstack/authcore/internal/config"
	"github.com/cleanstack/authcore/localauth"
	"github.com/cleanstack/authcore/token"
)

type Server struct {
	config  config.Config
	local   *localauth.Service
	codec   *token.Codec
	manager *auth.Manager
	todos   *todoStore
	env     string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithManager mounts the federated callback route backed by the given manager.
func WithManager(manager *auth.Manager) ServerOption {
	return func(s *Server) {
		s.manager = manager
	}
}

// New creates the HTTP server. local may be nil when running federated-only;
// the local auth endpoints are then not mounted.
func New(cfg config.Config, local *localauth.Service, codec *token.Codec, options ...ServerOption) *Server {
	s := &Server{
		config: cfg,
		local:  local,
		codec:  codec,
		todos:  newTodoStore(),
		env:    cfg.GetEnv(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	std := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	}
	guarded := append(append([]func(http.HandlerFunc) http.HandlerFunc{}, std...), s.RequireAuth)

	if s.local != nil {
		mux.HandleFunc("POST /auth/login", ChainMiddleware(s.LoginHandler(), std...))
		mux.HandleFunc("POST /auth/register", ChainMiddleware(s.RegisterHandler(), std...))
		mux.HandleFunc("POST /auth/refresh", ChainMiddleware(s.RefreshHandler(), std...))
		mux.HandleFunc("POST /auth/logout", ChainMiddleware(s.LogoutHandler(), guarded...))
	}
	mux.HandleFunc("GET /auth/me", ChainMiddleware(s.MeHandler(), guarded...))

	if s.manager != nil && s.manager.Mode() == auth.ModeFederated {
		mux.HandleFunc("GET /auth/callback", ChainMiddleware(s.CallbackHandler(), std...))
	}

	mux.HandleFunc("GET /api/todos", ChainMiddleware(s.ListTodosHandler(), guarded...))
	mux.HandleFunc("POST /api/todos", ChainMiddleware(s.CreateTodoHandler(), guarded...))
	mux.HandleFunc("GET /api/todos/{id}", ChainMiddleware(s.GetTodoHandler(), guarded...))
	mux.HandleFunc("PUT /api/todos/{id}", ChainMiddleware(s.UpdateTodoHandler(), guarded...))
	mux.HandleFunc("POST /api/todos/{id}/complete", ChainMiddleware(s.CompleteTodoHandler(), guarded...))
	mux.HandleFunc("DELETE /api/todos/{id}", ChainMiddleware(s.DeleteTodoHandler(), guarded...))

	return mux
}

// ChainMiddleware applies middleware in reverse order so the first listed
// middleware runs outermost.
func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}
