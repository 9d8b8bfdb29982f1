// Package server exposes the forecaster over HTTP. Every request is
// independent; the dataset and model store are shared read-only.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
)

const (
	shutdownTimeout = 10 * time.Second
	// bodyLimit caps request bodies, dataset uploads included.
	bodyLimit = "10M"
)

// Catalog reports which segments have a model artifact.
type Catalog interface {
	Exists(seg dataset.Segment) bool
}

// Server is the HTTP front end of a forecast.Context.
type Server struct {
	echo           *echo.Echo
	fc             *forecast.Context
	catalog        Catalog
	defaultPeriods int
	logger         *zap.Logger
	metrics        *metrics
}

// Options configure a Server.
type Options struct {
	Catalog        Catalog
	DefaultPeriods int
	Logger         *zap.Logger
	// Registry receives the server metrics; a fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New wires routes and middleware around fc.
func New(fc *forecast.Context, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.DefaultPeriods < 1 {
		opts.DefaultPeriods = 3
	}

	s := &Server{
		echo:           echo.New(),
		fc:             fc,
		catalog:        opts.Catalog,
		defaultPeriods: opts.DefaultPeriods,
		logger:         opts.Logger.Named("http"),
		metrics:        newMetrics(opts.Registry),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.metrics.observeRequest(v.Method, v.RoutePath, v.Status, v.Latency)
			s.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID))
			return nil
		},
	}))

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1")
	api.GET("/segments", s.segments)
	api.POST("/forecast", s.forecast)
	api.POST("/forecast/chart", s.forecastChart)
	api.POST("/datasets/validate", s.validateDataset)

	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
