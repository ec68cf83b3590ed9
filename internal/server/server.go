package server

import (
	"context"
	"net"

	"ideawalker-core/internal/bootstrap"
	"ideawalker-core/internal/config"
	"ideawalker-core/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: true,
	})

	// the GUI runs on the same machine
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, OPTIONS",
	}))

	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Run listens on loopback only.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.cfg.App.Host, s.cfg.App.Port)
	s.container.Logger.Info("Server", "Control API listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.TaskController.RegisterRoutes(api)
	c.PipelineController.RegisterRoutes(api)
	c.ModelController.RegisterRoutes(api)
	c.NoteController.RegisterRoutes(api)
	c.TrajectoryController.RegisterRoutes(api)
}
