package app

import (
	"fmt"
	"sync"

	"bridge-backend/internal/clients"
	"bridge-backend/internal/config"
	"bridge-backend/internal/db"
	"bridge-backend/internal/events"
	"bridge-backend/internal/repository"
	"bridge-backend/internal/services"

	"github.com/sirupsen/logrus"
)

// ServiceContainer wires all repositories, clients and services once.
type ServiceContainer struct {
	// Repositories
	AccountRepo repository.AccountRepository
	PaymentRepo repository.PaymentRepository

	// Clients
	AttestationClient *clients.AttestationClient
	NATSClient        *clients.NATSClient

	// Core Services
	WalletProvisioner *services.WalletProvisionerService
	BridgeService     *services.BridgeService
	PaymentService    *services.PaymentService

	// Push Services
	ProgressPush *services.ProgressPushService
	WalletEvents *events.NATSProgressPublisher // nil when NATS is disabled
}

var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the singleton service container.
func InitializeContainer() (*ServiceContainer, error) {
	var initErr error
	containerOnce.Do(func() {
		Container, initErr = buildContainer()
	})
	return Container, initErr
}

func buildContainer() (*ServiceContainer, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	if err := db.InitDB(); err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	container := &ServiceContainer{
		AccountRepo:       repository.NewAccountRepository(db.DB),
		PaymentRepo:       repository.NewPaymentRepository(db.DB),
		AttestationClient: clients.NewAttestationClient(cfg.Circle),
		ProgressPush:      services.NewProgressPushService(),
	}

	observers := services.MultiObserver{container.ProgressPush}

	if cfg.NATS.Enabled {
		natsClient, err := clients.NewNATSClient(cfg.NATS)
		if err != nil {
			// advisory subsystem, not worth failing startup over
			logrus.WithError(err).Warn("NATS unavailable, progress events will not be published")
		} else {
			container.NATSClient = natsClient
			container.WalletEvents = events.NewNATSProgressPublisher(natsClient)
			observers = append(observers, container.WalletEvents)
		}
	}

	container.WalletProvisioner = services.NewWalletProvisionerService(cfg, clients.DialChain, container.AccountRepo)
	container.BridgeService = services.NewBridgeService(cfg, clients.DialChain, container.AttestationClient, observers)
	container.PaymentService = services.NewPaymentService(container.PaymentRepo, container.AccountRepo)

	logrus.Info("service container initialized")
	return container, nil
}

// Close releases held connections.
func (c *ServiceContainer) Close() {
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
}
