package httpserver

import (
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/murli1234/Gemini-live-cam/internal/loop"
)

//go:embed web/index.html
var webFS embed.FS

// Server exposes start/stop/send-text controls over the session manager.
type Server struct {
	Echo    *echo.Echo
	manager *Manager
	hub     *Hub
}

// apiResponse is the envelope every control endpoint answers with.
type apiResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

type runRequest struct {
	Mode string `json:"mode"`
}

type textRequest struct {
	Text string `json:"text"`
}

type statusResponse struct {
	loop.Status
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// New constructs the HTTP server around a runner factory.
func New(factory Factory) *Server {
	hub := NewHub()
	s := &Server{
		Echo:    echo.New(),
		manager: NewManager(factory, hub),
		hub:     hub,
	}
	e := s.Echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/", s.root)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/run", s.run)
	e.POST("/send-text", s.sendText)
	e.POST("/stop", s.stop)
	e.GET("/status", s.status)
	e.GET("/events", s.events)
	e.GET("/ui", s.ui)
	return s
}

// Shutdown stops any active session before the HTTP listener goes away.
func (s *Server) Shutdown() {
	s.manager.Stop()
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Gemini Live control API",
		"endpoints": map[string]string{
			"POST /run":       "start a live session (body: {\"mode\": \"camera\"|\"screen\"|\"none\"})",
			"POST /send-text": "send a user text turn (body: {\"text\": \"...\"})",
			"POST /stop":      "stop the live session",
			"GET /status":     "session status",
			"GET /events":     "websocket event stream",
			"GET /ui":         "browser control page",
			"GET /healthz":    "health check",
		},
		"timestamp": now(),
	})
}

func (s *Server) run(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "error", "invalid request body")
	}
	if req.Mode == "" {
		req.Mode = "camera"
	}
	switch req.Mode {
	case "camera", "screen", "none":
	default:
		return respond(c, http.StatusBadRequest, "error", "mode must be camera, screen or none")
	}

	id, err := s.manager.Run(req.Mode)
	if err != nil {
		if errors.Is(err, loop.ErrRunning) {
			return respond(c, http.StatusConflict, "error", "session already running")
		}
		log.Errorf("run failed: %v", err)
		return respond(c, http.StatusInternalServerError, "error", err.Error())
	}
	return c.JSON(http.StatusOK, apiResponse{
		Status:    "success",
		Message:   "Started Gemini Live in " + req.Mode + " mode",
		SessionID: id,
		Timestamp: now(),
	})
}

func (s *Server) sendText(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "error", "invalid request body")
	}
	if err := s.manager.SendText(req.Text); err != nil {
		if errors.Is(err, loop.ErrNotRunning) {
			return respond(c, http.StatusConflict, "error", "no session running")
		}
		log.Errorf("send text failed: %v", err)
		return respond(c, http.StatusInternalServerError, "error", err.Error())
	}
	return respond(c, http.StatusOK, "success", "Text input sent")
}

func (s *Server) stop(c echo.Context) error {
	// Stopping an idle manager is a no-op, matching the original API.
	s.manager.Stop()
	return respond(c, http.StatusOK, "success", "Session ended successfully")
}

func (s *Server) status(c echo.Context) error {
	st, id := s.manager.Status()
	return c.JSON(http.StatusOK, statusResponse{Status: st, SessionID: id, Timestamp: now()})
}

func (s *Server) events(c echo.Context) error {
	s.hub.ServeWS(c.Response(), c.Request())
	return nil
}

func (s *Server) ui(c echo.Context) error {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		return respond(c, http.StatusInternalServerError, "error", "control page unavailable")
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func respond(c echo.Context, code int, status, message string) error {
	return c.JSON(code, apiResponse{Status: status, Message: message, Timestamp: now()})
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
