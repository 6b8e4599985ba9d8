// Copyright 2025 Gameday Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the game engine over HTTP: starting games, requesting
// resets, reading phase and component health, and a live event stream for
// the dashboard.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/constants"
	"github.com/gamedaylabs/gameday-core/pkg/events"
	"github.com/gamedaylabs/gameday-core/pkg/game"
	"github.com/gamedaylabs/gameday-core/pkg/injection"
	"github.com/gamedaylabs/gameday-core/pkg/logger"
	"github.com/gamedaylabs/gameday-core/pkg/metrics"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address the server listens on, e.g. ":8084".
	ListenAddress string
	// Debug enables gin debug mode and request logging.
	Debug bool
}

// Server is the HTTP front of the game engine.
type Server struct {
	engine *game.Engine
	bus    *events.Bus
	config ServerConfig
	log    *zap.SugaredLogger

	server *http.Server
}

// NewServer creates an API server.
func NewServer(engine *game.Engine, bus *events.Bus, config ServerConfig) *Server {
	if config.ListenAddress == "" {
		config.ListenAddress = constants.DefaultAPIListenAddress
	}

	return &Server{
		engine: engine,
		bus:    bus,
		config: config,
		log:    logger.For(logger.ComponentAPIServer),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/game/start", s.startGameHandler)
		v1.POST("/game/reset", s.resetHandler)
		v1.GET("/game/phase", s.phaseHandler)
		v1.GET("/game/components", s.componentsHandler)
		v1.GET("/game/events", s.eventsHandler)
	}

	return router
}

// Start runs the server until the context is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the event stream stays open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("API server listening on %s", s.config.ListenAddress)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	s.log.Info("Stopping API server")
	return s.server.Shutdown(shutdownCtx)
}

// loggingMiddleware provides request logging.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if s.config.Debug {
			s.log.Infow("API request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", c.Writer.Status(),
				"duration", time.Since(start),
			)
		}
	}
}

type startGameRequest struct {
	SessionID  string `json:"sessionId"`
	Category   string `json:"category" binding:"required"`
	Difficulty string `json:"difficulty" binding:"required"`
}

type startGameResponse struct {
	SessionID         string   `json:"sessionId"`
	Phase             string   `json:"phase"`
	FaultedComponents []string `json:"faultedComponents"`
}

func (s *Server) startGameHandler(c *gin.Context) {
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" {
		req.SessionID = constants.DefaultSessionID
	}

	faulted, err := s.engine.StartGame(c.Request.Context(), req.SessionID,
		catalog.Category(req.Category), catalog.Difficulty(req.Difficulty))
	if err != nil {
		switch {
		case errors.Is(err, injection.ErrGameNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, injection.ErrUnknownCategory), errors.Is(err, injection.ErrUnknownDifficulty):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.log.Errorf("Failed to start game: %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start game"})
		}
		return
	}

	c.JSON(http.StatusOK, startGameResponse{
		SessionID:         req.SessionID,
		Phase:             string(s.engine.Phase(req.SessionID)),
		FaultedComponents: faulted,
	})
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) resetHandler(c *gin.Context) {
	var req resetRequest
	// An empty body means the default session.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = constants.DefaultSessionID
	}

	if err := s.engine.Reset(c.Request.Context(), req.SessionID); err != nil {
		s.log.Errorf("Failed to accept reset: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept reset"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"sessionId": req.SessionID, "accepted": true})
}

func (s *Server) phaseHandler(c *gin.Context) {
	sessionID := c.DefaultQuery("sessionId", constants.DefaultSessionID)
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"phase":     string(s.engine.Phase(sessionID)),
	})
}

func (s *Server) componentsHandler(c *gin.Context) {
	states, err := s.engine.ComponentStates(c.Request.Context())
	if err != nil {
		s.log.Errorf("Failed to read component states: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read component states"})
		return
	}

	components := make(map[string]string, len(states))
	for name, status := range states {
		components[name] = string(status)
	}
	c.JSON(http.StatusOK, gin.H{"components": components})
}

// eventsHandler streams engine events as server-sent events until the
// client disconnects or the bus closes.
func (s *Server) eventsHandler(c *gin.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				s.log.Errorf("Failed to marshal event: %s", err)
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}
