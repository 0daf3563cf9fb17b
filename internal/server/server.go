package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/storage"
)

// Server exposes stored snapshots as a read-only JSON API.
type Server struct {
	Store    storage.Store
	Username string
	Password string
}

func New(store storage.Store, user, pass string) *Server {
	return &Server{
		Store:    store,
		Username: user,
		Password: pass,
	}
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/snapshots", s.basicAuth(s.handleSnapshots))
	mux.HandleFunc("GET /api/snapshots/latest", s.basicAuth(s.handleLatest))
	mux.HandleFunc("GET /api/snapshots/{key}", s.basicAuth(s.handleSnapshot))
	mux.HandleFunc("GET /api/changes", s.basicAuth(s.handleChanges))

	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
