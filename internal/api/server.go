package api

import (
	"net/http"

	"centerout/adapters/feed"
	"centerout/app"
	"centerout/internal"
	"centerout/ports"

	"github.com/gin-gonic/gin"
)

// Server is the task control API: session lifecycle, commands, queries,
// the SSE event stream and the websocket sample ingest.
type Server struct {
	router  *gin.Engine
	handler *TaskHandler
	hub     *SSEHub
	ingest  http.Handler
}

// NewServer wires the routes. clock stamps untimed ingest samples.
func NewServer(svc *app.TaskService, ledger ports.LedgerReaderPort, hub *SSEHub, clock ports.Clock, logger *internal.Logger) *Server {
	s := &Server{
		router:  gin.New(),
		handler: NewTaskHandler(svc, ledger, logger),
		hub:     hub,
		ingest:  feed.NewIngest(svc, clock),
	}
	s.router.Use(gin.Logger(), gin.Recovery())
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.POST("/session/start", s.handler.StartSession)
		api.POST("/session/end", s.handler.EndSession)
		api.GET("/session/report", s.handler.Report)
		api.POST("/command", s.handler.Command)
		api.POST("/sample", s.handler.Sample)

		api.GET("/status", s.handler.Status)
		api.GET("/rows", s.handler.Rows)
		api.GET("/attempts", s.handler.Attempts)
		api.GET("/summary", s.handler.Summary)
		api.GET("/targets", s.handler.Targets)
		api.GET("/params", s.handler.Params)
	}

	if s.hub != nil {
		s.router.GET("/events", s.hub.HandleSSE)
	}
	s.router.GET("/ws/ingest", gin.WrapH(s.ingest))
}

// Handler returns the HTTP handler for use with an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}
