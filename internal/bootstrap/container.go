package bootstrap

import (
	"membrane-connect-be/internal/config"
	"membrane-connect-be/internal/controller"
	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/repository/unitofwork"
	"membrane-connect-be/internal/service"
	"membrane-connect-be/pkg/events"
	"membrane-connect-be/pkg/membrane"
	pktNats "membrane-connect-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConnectibleController         controller.IConnectibleController
	MembraneActionController      controller.IMembraneActionController
	MembraneIntegrationController controller.IMembraneIntegrationController
	MembraneSessionController     controller.IMembraneSessionController
	MembraneTokenController       controller.IMembraneTokenController

	AuthMiddleware fiber.Handler
	Logger         logger.ILogger
	Registry       *prometheus.Registry

	natsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 2. Integration Backend
	membraneClient := membrane.NewClient(cfg.Membrane.APIURI, cfg.Membrane.HTTPTimeout, membrane.NewMetrics(registry))
	minter := membrane.NewTokenMinter(cfg.Membrane.WorkspaceKey, cfg.Membrane.WorkspaceSecret)

	// 3. Event bus
	var publisher events.Publisher = events.NopPublisher{}
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		p, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher, events disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsPub = p
			publisher = p
		}
	}

	// 4. Services
	tokenService := service.NewTokenService(minter, sysLogger)
	connectibleService := service.NewConnectibleService(membraneClient, minter, sysLogger)
	integrationService := service.NewIntegrationService(uowFactory, publisher, sysLogger)
	actionService := service.NewActionService(uowFactory, membraneClient, minter, sysLogger)
	agentSessionService := service.NewAgentSessionService(membraneClient, minter, publisher, sysLogger)

	// 5. Controllers
	return &Container{
		ConnectibleController:         controller.NewConnectibleController(connectibleService),
		MembraneActionController:      controller.NewMembraneActionController(actionService),
		MembraneIntegrationController: controller.NewMembraneIntegrationController(integrationService),
		MembraneSessionController:     controller.NewMembraneSessionController(agentSessionService),
		MembraneTokenController:       controller.NewMembraneTokenController(tokenService),

		AuthMiddleware: serverutils.NewAuthMiddleware(cfg.Auth.SessionSecret),
		Logger:         sysLogger,
		Registry:       registry,
		natsPub:        natsPub,
	}
}

// Close releases connections held by the container.
func (c *Container) Close() {
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	_ = c.Logger.Sync()
}
