// internal/server/server.go
package server

import (
	"context"
	"net/http"

	"byteplus-functions/internal/common/config"
	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	badgecount "byteplus-functions/internal/functions/notifications/badge-count"
	sendpush "byteplus-functions/internal/functions/notifications/send-push"
	manageusers "byteplus-functions/internal/functions/users/manage-users"
	"byteplus-functions/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the trigger surface: the notification-created event
// sink, the callable endpoints, and the operational endpoints.
type Server struct {
	config   config.ServerConfig
	logger   logger.Logger
	engine   *gin.Engine
	httpSrv  *http.Server
	identity identity.Provider

	dispatch *sendpush.Handler
	badge    *badgecount.Handler
	users    *manageusers.Handler
}

type Options struct {
	Config   config.ServerConfig
	Logger   logger.Logger
	Identity identity.Provider
	Dispatch *sendpush.Handler
	Badge    *badgecount.Handler
	Users    *manageusers.Handler
}

func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		config:   opts.Config,
		logger:   opts.Logger,
		engine:   engine,
		identity: opts.Identity,
		dispatch: opts.Dispatch,
		badge:    opts.Badge,
		users:    opts.Users,
	}

	engine.Use(
		gin.Recovery(),
		RequestID(),
		RequestLogger(opts.Logger),
		RequestMetrics(),
	)
	s.routes()

	s.httpSrv = &http.Server{
		Addr:         opts.Config.Address,
		Handler:      engine,
		ReadTimeout:  config.GetDuration(opts.Config.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.WriteTimeout),
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.POST("/events/notification-created", s.handleNotificationCreated)

	callable := v1.Group("", Authenticate(s.identity, s.logger))
	callable.POST("/badge-count", s.handleBadgeCount)
	callable.POST("/users", s.handleCreateUser)
	callable.DELETE("/users/:id", s.handleDeleteUser)
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address": s.config.Address,
	})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handlerCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := config.GetDuration(s.config.HandlerTimeout)
	if timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// notificationCreatedEvent is the document-create envelope: the new
// record's key plus its full field map.
type notificationCreatedEvent struct {
	ID     string                 `json:"id" binding:"required"`
	Fields map[string]interface{} `json:"fields" binding:"required"`
}

// handleNotificationCreated runs the dispatcher for one created record.
// The trigger is fire-and-forget: dispatch failures are reconciled onto
// the record and reported 200 so the event source never redelivers.
func (s *Server) handleNotificationCreated(c *gin.Context) {
	var event notificationCreatedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event envelope", "details": err.Error()})
		return
	}

	ctx, cancel := s.handlerCtx(c)
	defer cancel()

	input := sendpush.FromRecord(event.ID, event.Fields)

	// A created record changes the user's unread count; drop any cached
	// badge value before the dispatch outcome is known.
	s.badge.Invalidate(ctx, input.UserID)

	output, err := s.dispatch.Execute(ctx, input)
	if err != nil {
		s.logger.Error("dispatch failed", map[string]interface{}{
			"notificationId": event.ID,
			"requestId":      c.GetString("requestId"),
			"error":          err.Error(),
		})
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, output)
}

func (s *Server) handleBadgeCount(c *gin.Context) {
	ctx, cancel := s.handlerCtx(c)
	defer cancel()

	output, err := s.badge.Execute(ctx, &badgecount.Input{UID: c.GetString(uidContextKey)})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var args map[string]interface{}
	if err := c.ShouldBindJSON(&args); err != nil {
		s.writeError(c, errors.NewInvalidArgumentError("invalid request body", err.Error()))
		return
	}

	ctx, cancel := s.handlerCtx(c)
	defer cancel()

	output, err := s.users.ExecuteCreate(ctx, c.GetString(uidContextKey), args)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, output)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	ctx, cancel := s.handlerCtx(c)
	defer cancel()

	output, err := s.users.ExecuteDelete(ctx, c.GetString(uidContextKey), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	c.JSON(errors.HTTPStatus(stdErr.Code), stdErr)
}
