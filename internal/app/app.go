// Package app wires the parking service dependency graph.
package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smartpark/internal/config"
	"smartpark/internal/gate"
	httpserver "smartpark/internal/http"
	"smartpark/internal/http/handlers"
	"smartpark/internal/http/middleware"
	"smartpark/internal/ledger"
	"smartpark/internal/metrics"
	"smartpark/internal/occupancy"
	"smartpark/internal/registry"
	"smartpark/internal/repository"
	"smartpark/internal/token"
	libdb "smartpark/libs/db"
	libredis "smartpark/libs/redis"
)

// App holds the constructed graph and owned resources.
type App struct {
	server      *httpserver.Server
	redisClient *redis.Client
	archiveDB   *sql.DB
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	var archiveDB *sql.DB
	var archiver ledger.Archiver
	if cfg.Archive.DSN != "" {
		archiveDB, err = libdb.NewPostgresDB(cfg.Archive.DSN)
		if err != nil {
			redisClient.Close()
			return nil, err
		}
		archiver = repository.NewArchiveRepository(archiveDB)
	}

	accountRepo := repository.NewAccountRepository(redisClient)
	sessionRepo := repository.NewSessionRepository(redisClient)
	lotRepo := repository.NewLotRepository(redisClient)
	unregRepo := repository.NewUnregisteredRepository(redisClient)

	collector := metrics.NewCollector()

	registrySvc := registry.NewService(accountRepo, logger)
	ledgerSvc := ledger.NewService(
		sessionRepo,
		ledger.Tariff{RatePerHour: cfg.Tariff.RatePerHour},
		ledger.GateTariff{
			GraceMinutes: cfg.Tariff.GateGraceMinutes,
			RatePerHour:  cfg.Tariff.GateRatePerHour,
			DailyCap:     cfg.Tariff.GateDailyCap,
		},
		archiver,
		collector,
		logger,
	)
	occupancySvc := occupancy.NewService(lotRepo)
	gateSvc := gate.NewService(registrySvc, ledgerSvc, unregRepo, logger)

	tokenSvc := token.NewService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	auth := middleware.Auth(tokenSvc)

	parkingHandler := handlers.NewParkingHandler(ledgerSvc, logger)

	routes := httpserver.Routes{
		Register:       handlers.NewRegisterHandler(registrySvc),
		Login:          handlers.NewLoginHandler(registrySvc, tokenSvc, logger),
		Enter:          auth(parkingHandler.HandleEnter),
		Exit:           auth(parkingHandler.HandleExit),
		CurrentSession: auth(parkingHandler.HandleCurrentSession),
		History:        auth(parkingHandler.HandleHistory),
		Reconcile:      auth(parkingHandler.HandleReconcile),
		LotSpaces:      handlers.NewLotSpacesHandler(occupancySvc),
		LotWatch:       handlers.NewLotWatchHandler(occupancySvc, logger),
		HistoryWatch:   auth(handlers.NewHistoryWatchHandler(ledgerSvc, logger)),
		Metrics:        collector.Handler(),
		Health:         handlers.NewHealthHandler(),
	}

	if cfg.Auth.GateKeyHash != "" {
		verifier, err := gate.NewBcryptVerifier(cfg.Auth.GateKeyHash)
		if err != nil {
			redisClient.Close()
			if archiveDB != nil {
				archiveDB.Close()
			}
			return nil, err
		}
		gateAuth := middleware.APIKey(verifier)
		gateHandler := handlers.NewGateHandler(gateSvc, unregRepo, logger)
		routes.PlateSeen = gateAuth(gateHandler.HandlePlateSeen)
		routes.Unregistered = gateAuth(gateHandler.HandleUnregistered)
	} else {
		logger.Warn("gate key hash not configured, detector endpoints disabled")
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		redisClient: redisClient,
		archiveDB:   archiveDB,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.archiveDB != nil {
		if err := a.archiveDB.Close(); err != nil {
			a.logger.Warn("failed to close archive db", zap.Error(err))
		}
	}
}
