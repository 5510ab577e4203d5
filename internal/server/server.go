package server

import (
	"errors"

	"membrane-connect-be/internal/bootstrap"
	"membrane-connect-be/internal/config"
	"membrane-connect-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

// New builds the Fiber app. Credentialed CORS with a wildcard origin is
// refused here rather than left to panic inside the cors middleware.
func New(cfg *config.Config, container *bootstrap.Container) (*Server, error) {
	if config.HasWildcardOrigin(cfg.App.CorsAllowedOrigins) {
		return nil, errors.New("cors: wildcard origin cannot be combined with credentials")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}, nil
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Server is running", map[string]interface{}{
		"address": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.ConnectibleController.RegisterRoutes(api, c.AuthMiddleware)
	c.MembraneActionController.RegisterRoutes(api, c.AuthMiddleware)
	c.MembraneIntegrationController.RegisterRoutes(api, c.AuthMiddleware)
	c.MembraneSessionController.RegisterRoutes(api, c.AuthMiddleware)
	c.MembraneTokenController.RegisterRoutes(api, c.AuthMiddleware)
}
