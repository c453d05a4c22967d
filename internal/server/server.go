// Package server exposes the daemon's local HTTP API.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/gamify"
	"github.com/studyloop/studyloop/internal/storage"
)

// Server wires the HTTP surface to the engine and services. The API is
// single-user: the owning user id comes from config, not from auth.
type Server struct {
	store  *storage.Store
	svc    *gamify.Service
	engine *focus.Engine
	userID string

	httpServer *http.Server
}

// New creates a server listening on addr.
func New(addr, userID string, store *storage.Store, svc *gamify.Service, engine *focus.Engine) *Server {
	s := &Server{
		store:  store,
		svc:    svc,
		engine: engine,
		userID: userID,
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		api.GET("/modes", s.listModes())

		api.POST("/items", s.createItem())
		api.GET("/items", s.listItems())
		api.GET("/items/:id", s.getItem())
		api.POST("/items/:id/review", s.recordReview())
		api.POST("/items/:id/transition", s.transitionItem())
		api.GET("/queue", s.dueQueue())

		api.GET("/stats", s.getStats())
		api.GET("/achievements", s.listAchievements())

		api.GET("/session", s.sessionSnapshot())
		api.GET("/sessions", s.sessionHistory())
		api.POST("/session/work", s.startWork())
		api.POST("/session/break", s.startBreak())
		api.POST("/session/stop", s.stopSession())
		api.POST("/session/resume", s.resumeSession())
		api.POST("/session/discard", s.discardSession())
		api.POST("/session/visibility", s.setVisibility())
		api.PATCH("/sessions/:id/duration", s.reduceDuration())
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
