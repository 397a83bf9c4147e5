// Package api exposes a small local control server over the auto-reply
// poller: health, status, start/stop, and recent events.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/replydeck/internal/autoreply"
	"github.com/replydeck/internal/marker"
)

// maxRecentEvents bounds the in-memory event ring.
const maxRecentEvents = 100

// PollerFactory builds a fresh poller for each start request. Pollers are
// single-use, so stopping and starting again needs a new one.
type PollerFactory func() (*autoreply.Poller, error)

// Server represents the control API server.
type Server struct {
	echo    *echo.Echo
	addr    string
	factory PollerFactory
	markers marker.Store

	mu      sync.Mutex
	poller  *autoreply.Poller
	cancel  context.CancelFunc
	done    chan struct{}
	recent  []eventView
	replies int
	errors  int
}

type eventView struct {
	Kind      string    `json:"kind"`
	MentionID string    `json:"mention_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// NewServer creates the control API server.
func NewServer(addr string, factory PollerFactory, markers marker.Store) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:    e,
		addr:    addr,
		factory: factory,
		markers: markers,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	v1.GET("/status", s.getStatus)
	v1.POST("/poller/start", s.startPoller)
	v1.POST("/poller/stop", s.stopPoller)
	v1.GET("/events", s.getEvents)
}

// Start begins serving and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.StopPoller(shutdownCtx)
	return s.echo.Shutdown(shutdownCtx)
}

// StartPoller launches a new poll loop. It returns ErrAlreadyRunning when
// one is active.
func (s *Server) StartPoller() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return autoreply.ErrAlreadyRunning
	}

	p, err := s.factory()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.poller = p
	s.cancel = cancel
	s.done = done

	go func() {
		if err := p.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Poller exited with error")
		}
		close(done)
	}()
	go s.drainEvents(p)

	return nil
}

// StopPoller cancels the active poll loop and waits for it to finish.
func (s *Server) StopPoller(ctx context.Context) bool {
	s.mu.Lock()
	if !s.runningLocked() {
		s.mu.Unlock()
		return false
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return true
}

// runningLocked reports whether a poll loop is active. Caller holds s.mu.
func (s *Server) runningLocked() bool {
	if s.poller == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Server) drainEvents(p *autoreply.Poller) {
	for ev := range p.Events() {
		view := eventView{
			Kind:      ev.Kind,
			MentionID: ev.MentionID,
			Message:   ev.Message,
			At:        ev.At,
		}
		if ev.Err != nil {
			view.Error = ev.Err.Error()
		}

		s.mu.Lock()
		switch ev.Kind {
		case autoreply.EventReplied:
			s.replies++
		case autoreply.EventFetchError, autoreply.EventPostError:
			s.errors++
		}
		s.recent = append(s.recent, view)
		if len(s.recent) > maxRecentEvents {
			s.recent = s.recent[len(s.recent)-maxRecentEvents:]
		}
		s.mu.Unlock()
	}
}

func (s *Server) getStatus(c echo.Context) error {
	s.mu.Lock()
	running := s.runningLocked()
	state := autoreply.StateIdle
	if s.poller != nil {
		state = s.poller.State()
	}
	replies, errCount := s.replies, s.errors
	s.mu.Unlock()

	markerID := ""
	if s.markers != nil {
		if id, err := s.markers.Load(c.Request().Context()); err == nil {
			markerID = id
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"running": running,
		"state":   state,
		"marker":  markerID,
		"replies": replies,
		"errors":  errCount,
	})
}

func (s *Server) startPoller(c echo.Context) error {
	if err := s.StartPoller(); err != nil {
		if err == autoreply.ErrAlreadyRunning {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) stopPoller(c echo.Context) error {
	if !s.StopPoller(c.Request().Context()) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "poller is not running"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

// getEvents returns and clears the recent event buffer.
func (s *Server) getEvents(c echo.Context) error {
	s.mu.Lock()
	events := s.recent
	s.recent = nil
	s.mu.Unlock()

	if events == nil {
		events = []eventView{}
	}
	return c.JSON(http.StatusOK, events)
}
