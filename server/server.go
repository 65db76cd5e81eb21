// Package server exposes dashboard sessions over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spektr-org/spendshark/config"
	"github.com/spektr-org/spendshark/dashboard"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("spendshark")

const shutdownTimeout = 10 * time.Second

// Server serves the dashboard API.
type Server struct {
	cfg    config.Config
	store  *dashboard.Store
	Tracer trace.Tracer
	logger *logrus.Logger
}

// New creates a Server over store.
func New(cfg config.Config, store *dashboard.Store) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		Tracer: tracer,
		logger: config.GetLogger(),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(customErrorLogger(s.logger))
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api/sessions")
	api.POST("", s.createSessionHandler())

	sess := api.Group("/:id", s.sessionMiddleware())
	sess.DELETE("", s.deleteSessionHandler())
	sess.GET("/dataset", datasetHandler())
	sess.GET("/vendors", vendorsHandler())
	sess.GET("/invoices", invoicesHandler())
	sess.GET("/invoices/:invoiceId", invoiceHandler())
	sess.GET("/predictions", predictionsHandler())
	sess.GET("/predictions/:vendorId", predictionHandler())
	sess.GET("/stats/vendors", vendorStatsHandler())
	sess.GET("/stats/roi", s.roiStatsHandler())
	sess.GET("/stats/operators", s.operatorStatsHandler())
	sess.GET("/stats/sources", sourceStatsHandler())
	sess.GET("/charts", chartsHandler())
	sess.GET("/tables", s.tablesHandler())
	sess.GET("/schema", schemaHandler())
	sess.POST("/query", s.queryHandler())
	sess.POST("/chat/toggle", chatToggleHandler())
	sess.GET("/chat", chatHandler())
	sess.POST("/chat/messages", s.chatMessageHandler())
	sess.POST("/sidebar/toggle", sidebarToggleHandler())
	sess.POST("/sidebar/dismiss", sidebarDismissHandler())
	sess.GET("/export.xlsx", s.exportHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 || slices.Contains(s.cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.CORSOrigins
	}
	corsConfig.AddAllowMethods("GET", "POST", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	return corsConfig
}

// ListenAndServe serves on cfg.Addr until ctx is done, then drains
// in-flight requests and drops every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	s.logger.WithFields(logrus.Fields{"addr": s.cfg.Addr}).Info("🚀 dashboard API listening")

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.LogError(s.logger, "server", "ListenAndServe", "graceful shutdown", nil, err)
	}
	s.store.Close()
	return serveErr
}

// customErrorLogger logs only requests that recorded errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}
