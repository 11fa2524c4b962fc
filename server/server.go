// Package server exposes the dispatch protocol over HTTP. It is a thin
// transport shim: every request is delegated to the dispatcher or the
// orchestrator, and every response is a well-formed envelope or a typed
// error body; no protocol logic lives here.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hupe1980/mcpmesh/agent"
	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/logging"
)

// Options configure the HTTP server.
type Options struct {
	Logger     logging.Logger
	Version    string
	EnableCORS bool
}

// Server is the gin-backed HTTP boundary of the subsystem.
type Server struct {
	engine       *gin.Engine
	dispatcher   *dispatch.Dispatcher
	orchestrator *agent.Orchestrator
	logger       logging.Logger
	version      string
}

// New builds the HTTP server over the given dispatcher and orchestrator.
func New(d *dispatch.Dispatcher, orch *agent.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:  logging.NoOpLogger{},
		Version: "dev",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if opts.EnableCORS {
		engine.Use(cors.Default())
	}

	s := &Server{
		engine:       engine,
		dispatcher:   d,
		orchestrator: orch,
		logger:       opts.Logger,
		version:      opts.Version,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/capabilities", s.handleCapabilities)
	s.engine.POST("/mcp", s.handleDispatch)
	s.engine.POST("/prompt", s.handlePrompt)
	s.engine.POST("/query", s.handleQuery)
}

// Handler returns the underlying http.Handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("server.listen", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to the mcpmesh server!")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                 "healthy",
		"version":                s.version,
		"timestamp":              time.Now().UTC(),
		"available_capabilities": s.dispatcher.Registry().Names(),
	})
}

func (s *Server) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"capabilities": s.dispatcher.Registry().List(),
	})
}

// dispatchRequest is the POST /mcp body. "tool" is accepted as a legacy
// alias for "capability".
type dispatchRequest struct {
	Capability string         `json:"capability"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

func (s *Server) handleDispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	name := req.Capability
	if name == "" {
		name = req.Tool
	}
	if name == "" {
		badRequest(c, "missing 'capability' in request body")
		return
	}

	env := s.dispatcher.Dispatch(c.Request.Context(), name, req.Parameters)
	c.JSON(http.StatusOK, env)
}

// promptRequest is the POST /prompt body. The template field names a
// registered template, or carries inline template text.
type promptRequest struct {
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables"`
}

func (s *Server) handlePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Template == "" {
		badRequest(c, "missing 'template' in request body")
		return
	}

	params := map[string]any{"template": req.Template}
	if req.Variables != nil {
		params["variables"] = req.Variables
	}
	env := s.dispatcher.Dispatch(c.Request.Context(), capability.NameFormatPrompt, params)
	if !env.Success {
		c.JSON(http.StatusBadRequest, env)
		return
	}
	c.JSON(http.StatusOK, env.Result)
}

// queryRequest is the POST /query body.
type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		badRequest(c, "missing 'query' in request body")
		return
	}

	synthesis := s.orchestrator.HandleQuery(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, synthesis)
}

// badRequest writes a transport-level failure in envelope shape so callers
// see one uniform error surface.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"kind":    dispatch.KindInvalidParameters,
			"message": message,
		},
	})
}
