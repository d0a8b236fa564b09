package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"tracehub/app/handler"
	"tracehub/app/router"
	"tracehub/internal/service"
	"tracehub/pkg/config"
	"tracehub/pkg/logger"
	"tracehub/pkg/storage"
	mysqlstore "tracehub/pkg/store/mysql"
	redisstore "tracehub/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

var configPath = flag.String("config", "", "path to config file")

// initConfig loads configuration
func (app *Application) initConfig() error {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.config = cfg
	return nil
}

// initLogger initializes the logging system
func (app *Application) initLogger() error {
	return logger.Init(&app.config.Logger)
}

// initMySQL connects to MySQL and migrates the schema
func (app *Application) initMySQL() error {
	repo, err := mysqlstore.NewRepository(app.config.MySQL.DSN())
	if err != nil {
		return err
	}
	app.mysqlRepo = repo
	app.registerCleanup(func() {
		if err := repo.Close(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close MySQL: %v", err)
		}
	})
	return nil
}

// initRedis connects to Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(&app.config.Redis)
	if err != nil {
		return err
	}
	app.redisClient = client
	app.registerCleanup(func() {
		if err := client.Close(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close Redis: %v", err)
		}
	})
	return nil
}

// initStorage connects to the object store and ensures the trace bucket
func (app *Application) initStorage() error {
	store, err := storage.NewMinioStore(app.ctx, &app.config.Storage)
	if err != nil {
		return err
	}
	app.objectStore = store
	return nil
}

// initServices wires the service layer
func (app *Application) initServices() error {
	window := time.Duration(app.config.Registry.LivenessWindow) * time.Second

	deviceStates := redisstore.NewDeviceStateRepository(app.redisClient, window)

	app.registryService = service.NewRegistryService(app.mysqlRepo.Device, deviceStates, window)
	app.configService = service.NewConfigService(app.mysqlRepo.Config)
	app.traceService = service.NewTraceService(app.mysqlRepo.Trace, app.objectStore, app.config.Storage.TraceBucket)
	app.jobService = service.NewJobService(
		app.mysqlRepo.Job,
		app.mysqlRepo.JobDevice,
		app.mysqlRepo.JobUpdate,
		app.mysqlRepo.Config,
		app.registryService,
	)
	app.streamService = service.NewStreamService(app.mysqlRepo.JobUpdate)
	return nil
}

// initHandlers wires the handler layer
func (app *Application) initHandlers() error {
	app.jobHandler = handler.NewJobHandler(app.jobService, app.streamService)
	app.deviceHandler = handler.NewDeviceHandler(app.registryService)
	app.configHandler = handler.NewConfigHandler(app.configService)
	app.traceHandler = handler.NewTraceHandler(app.traceService)
	app.workerHandler = handler.NewWorkerHandler(app.jobService, app.registryService, app.configService, app.traceService)
	return nil
}

// initHTTPServer builds the gin engine and HTTP server
func (app *Application) initHTTPServer() error {
	gin.SetMode(app.config.Server.Mode)
	app.ginEngine = gin.New()

	r := router.NewRouter(
		app.jobHandler,
		app.deviceHandler,
		app.configHandler,
		app.traceHandler,
		app.workerHandler,
		app.mysqlRepo.Host,
	)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}
