// Package httpapi is a small HTTP gateway next to the gRPC API: a health
// check, the quest list and live views over WebSocket.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/server/auth"
	"github.com/dmitrijs2005/questboard/internal/server/services"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const identityKey = "identity"

type Server struct {
	address   string
	profiles  *services.ProfileService
	quests    *services.QuestService
	watch     *services.WatchService
	jwtSecret []byte
	logger    logging.Logger
	upgrader  websocket.Upgrader
}

func NewServer(address string, profiles *services.ProfileService, quests *services.QuestService, watch *services.WatchService, secretKey string, logger logging.Logger) *Server {
	return &Server{
		address:   address,
		profiles:  profiles,
		quests:    quests,
		watch:     watch,
		jwtSecret: []byte(secretKey),
		logger:    logger.With("module", "http_server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1 := r.Group("/v1", s.authenticate())
	v1.GET("/quests", s.handleQuests)
	v1.GET("/watch/:topic", s.handleWatch)
	return r
}

// Run serves until ctx is done and then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.address, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// bearer reads the access token from the Authorization header, or from the
// token query parameter for WebSocket clients that cannot set headers.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.Request)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
		if err != nil {
			msg := common.ErrInvalidToken.Error()
			if errors.Is(err, common.ErrTokenExpired) {
				msg = common.ErrTokenExpired.Error()
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}
		id, err := s.profiles.Identity(c.Request.Context(), userID)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// fail maps a service error onto an HTTP status.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrSelfInterest):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		abort(c, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrInvalidState):
		abort(c, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		abort(c, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error(c.Request.Context(), err.Error())
		abort(c, http.StatusInternalServerError, "internal error")
	}
}
