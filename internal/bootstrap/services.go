package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nimbusbank/bankview/config"
	redisadapter "github.com/nimbusbank/bankview/internal/adapters/redis"
	"github.com/nimbusbank/bankview/internal/ports"
	"github.com/nimbusbank/bankview/internal/service"
)

// ServiceDeps contains the shared dependencies the services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Bank        ports.BankAPI
	Logger      *slog.Logger
}

// ServiceContainer holds the constructed services.
type ServiceContainer struct {
	Sessions *service.SessionService
	Auth     *service.AuthFlowService
	Bank     ports.BankAPI
}

// NewServices wires the session registry and the auth flow service against
// the Redis mirror and the upstream bank client.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
		cfg.Sanitize()
	}

	mirror := redisadapter.NewMirrorStoreWithOptions(deps.RedisClient, "mirror:", cfg.Auth.MirrorTTL)

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Bank:     deps.Bank,
		Mirror:   mirror,
		Logger:   logger,
		EntryTTL: cfg.Auth.MirrorTTL,
	})

	auth := service.NewAuthFlowService(service.AuthFlowOptions{
		Bank:            deps.Bank,
		Sessions:        sessions,
		Logger:          logger,
		MinPasswordLen:  cfg.Auth.MinPasswordLen,
		CooldownSeconds: cfg.Auth.CooldownSeconds,
	})

	return ServiceContainer{Sessions: sessions, Auth: auth, Bank: deps.Bank}
}
