package targetctl

import (
	"encoding/json"
	"net/http"

	"centerout/internal"
	"centerout/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes a Hub over HTTP.
type Server struct {
	router *chi.Mux
	hub    *Hub
	logger *internal.Logger
}

// NewServer builds the router for hub.
func NewServer(hub *Hub) *Server {
	s := &Server{
		router: chi.NewRouter(),
		hub:    hub,
		logger: internal.DefaultLogger.With("targetd"),
	}
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/tgt", s.handleGet)
	s.router.Post("/tgt", s.handleSet)
	s.router.Post("/tgt/next", s.handleNext)
	s.router.Get("/counts", s.handleCounts)
	s.router.Get("/ws", s.handleWS)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type targetBody struct {
	Type string `json:"type"`
	Tgt  int    `json:"tgt"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, targetBody{Type: "tgt", Tgt: s.hub.Current()})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var body targetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.InvalidInput("body must be {\"tgt\": <index>}"))
		return
	}
	if err := s.hub.Set(body.Tgt); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("target set to %d", body.Tgt)
	writeJSON(w, http.StatusOK, targetBody{Type: "tgt", Tgt: body.Tgt})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	next := s.hub.Next()
	s.logger.Info("target advanced to %d", next)
	writeJSON(w, http.StatusOK, targetBody{Type: "tgt", Tgt: next})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"type": "counts", "count": s.hub.Counts()})
}

// handleWS pushes the current target, then every change, as tgt packets.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.hub.Subscribe()
	defer cancel()

	// a reader is needed to notice the peer closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(targetBody{Type: "tgt", Tgt: s.hub.Current()}); err != nil {
		return
	}
	for {
		select {
		case tgt := <-updates:
			if err := conn.WriteJSON(targetBody{Type: "tgt", Tgt: tgt}); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), map[string]interface{}{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
