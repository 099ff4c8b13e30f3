// Package api exposes the comparison engine over HTTP.
package api

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/recomp/recomp/pkg/compare"
	"github.com/recomp/recomp/pkg/core"
	"github.com/recomp/recomp/pkg/readers"
	"github.com/recomp/recomp/version"
	"go.uber.org/zap"
)

// ServerOptions configures the API server.
type ServerOptions struct {
	Port    string
	Prefork bool
	Logger  *zap.Logger
}

// Server holds the Fiber app instance.
type Server struct {
	app *fiber.App
	log *zap.Logger
}

// SourceRequest names a dataset to load for one side of a comparison.
type SourceRequest struct {
	Type      string `json:"type,omitempty"`
	Path      string `json:"path,omitempty"`
	Driver    string `json:"driver,omitempty"`
	URI       string `json:"uri,omitempty"`
	Table     string `json:"table,omitempty"`
	Query     string `json:"query,omitempty"`
	BatchSize int64  `json:"batch_size,omitempty"`
}

// CompareRequest is the POST /compare body.
type CompareRequest struct {
	Left  SourceRequest `json:"left"`
	Right SourceRequest `json:"right"`

	JoinColumns []string `json:"join_columns,omitempty"`
	OnIndex     bool     `json:"on_index,omitempty"`
	AbsTol      float64  `json:"abs_tol,omitempty"`
	RelTol      float64  `json:"rel_tol,omitempty"`
	LeftName    string   `json:"left_name,omitempty"`
	RightName   string   `json:"right_name,omitempty"`
	Parallel    bool     `json:"parallel,omitempty"`
	Workers     int      `json:"workers,omitempty"`
}

// NewServer initializes a new Fiber instance.
func NewServer(opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		Prefork:      opts.Prefork,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{app: app, log: log}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "recomp API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Post("/compare", s.handleCompare)

	return s
}

// handleCompare loads both sides, runs the comparison and returns its
// summary.
func (s *Server) handleCompare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	ctx := c.Context()
	left, err := readers.Load(ctx, readerConfig(req.Left))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to load left dataset: "+err.Error())
	}
	defer left.Release()

	right, err := readers.Load(ctx, readerConfig(req.Right))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to load right dataset: "+err.Error())
	}
	defer right.Release()

	comparison, err := compare.NewComparison(left, right, compare.Options{
		JoinColumns: req.JoinColumns,
		OnIndex:     req.OnIndex,
		AbsTol:      req.AbsTol,
		RelTol:      req.RelTol,
		LeftName:    req.LeftName,
		RightName:   req.RightName,
		Parallel:    req.Parallel,
		NumWorkers:  req.Workers,
		Logger:      s.log,
	})
	if err != nil {
		var cfgErr *compare.ConfigurationError
		var keyErr *compare.NoJoinKeyError
		if errors.As(err, &cfgErr) || errors.As(err, &keyErr) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	defer comparison.Release()

	return c.JSON(comparison.Summary())
}

func readerConfig(src SourceRequest) core.ReaderConfig {
	return core.ReaderConfig{
		Type:      src.Type,
		Path:      src.Path,
		Driver:    src.Driver,
		URI:       src.URI,
		Table:     src.Table,
		Query:     src.Query,
		BatchSize: src.BatchSize,
	}
}

// GetApp exposes the underlying Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the server until an interrupt arrives, then shuts down
// gracefully.
func (s *Server) Start(port string) error {
	if port == "" {
		port = "3000"
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("recomp API is running", zap.String("port", port))
		errCh <- s.app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	s.log.Info("received shutdown signal, stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
