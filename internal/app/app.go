package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/haguru/kakashi/config"
	"github.com/haguru/kakashi/internal/auth"
	"github.com/haguru/kakashi/internal/authclient"
	"github.com/haguru/kakashi/internal/form"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/middleware"
	"github.com/haguru/kakashi/internal/portal"
	"github.com/haguru/kakashi/internal/routes"
	"github.com/haguru/kakashi/internal/server"
	"github.com/haguru/kakashi/internal/submission"
	memoryUserRepo "github.com/haguru/kakashi/internal/userrepo/memory"
	mongoUserRepo "github.com/haguru/kakashi/internal/userrepo/mongo"
	postgresUserRepo "github.com/haguru/kakashi/internal/userrepo/postgres"
	"github.com/haguru/kakashi/internal/userservice"
	"github.com/haguru/kakashi/pkg/clock"
	"github.com/haguru/kakashi/pkg/databases/mongo"
	"github.com/haguru/kakashi/pkg/databases/postgres"
	"github.com/haguru/kakashi/pkg/metrics"
	"github.com/haguru/kakashi/pkg/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout bounds the graceful shutdown of the server and the user store.
var ShutdownTimeout = 10 * time.Second

// App represents the main application: the auth API, the signup and login
// views and the stores behind them.
type App struct {
	Server     interfaces.Server
	Config     *config.ServiceConfig
	Logger     interfaces.Logger
	Metrics    interfaces.Metrics
	UserRepo   interfaces.UserRepository
	Registry   *portal.Registry
	privateKey *ecdsa.PrivateKey
}

// NewApp creates and configures a new App instance from the YAML file at
// configPath, overlaid with envFile and the process environment.
func NewApp(configPath, envFile string) (*App, error) {
	validator := structValidator.New()
	cfg, err := config.Load(configPath, envFile, validator)
	if err != nil {
		return nil, err
	}

	logger := zerolog.NewZerologLogger(cfg.ServiceName)
	logger.SetLevel(cfg.LogLevel)

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: initializeMetrics(cfg.ServiceName),
	}

	if err := app.initializePrivateKey(); err != nil {
		return nil, fmt.Errorf("failed to initialize private key: %w", err)
	}

	userRepo, err := app.initializeUserRepo(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user repository: %w", err)
	}
	app.UserRepo = userRepo

	app.Server = server.NewServer(cfg.Host, cfg.Port, logger, middleware.RequestLogger(logger))

	if err := app.addAPIRoutes(validator); err != nil {
		return nil, err
	}
	if err := app.addPortalRoutes(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run serves until SIGINT or SIGTERM, then shuts everything down.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunContext(ctx)
}

// RunContext serves until ctx is done or the server fails.
func (app *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Registry.Run(ctx, app.Config.Portal.SweepInterval)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
	case <-ctx.Done():
		app.Logger.Info("Shutdown requested")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := app.Server.Shutdown(shutdownCtx); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	cancel()
	wg.Wait()

	if closeErr := app.UserRepo.Close(shutdownCtx); closeErr != nil {
		app.Logger.Error("Failed to close user repository", "error", closeErr)
		err = errors.Join(err, closeErr)
	}
	return err
}

func initializeMetrics(serviceName string) interfaces.Metrics {
	appMetrics := metrics.NewMetrics(serviceName)
	routes.RegisterMetrics(appMetrics)
	submission.RegisterMetrics(appMetrics)
	portal.RegisterMetrics(appMetrics)
	middleware.RegisterMetrics(appMetrics)
	return appMetrics
}

func (app *App) initializeDBClient(ctx context.Context) (interfaces.DBClient, error) {
	var dbClient interfaces.DBClient
	var err error
	var dsn string

	switch app.Config.Database.Type {
	case config.DatabaseMongo:
		dbClient, err = mongo.NewMongoDB(&app.Config.Database.MongoDB, app.Logger)
		dsn = app.Config.Database.MongoDB.DSN
	case config.DatabasePostgres:
		dbClient, err = postgres.NewPostgresDatabaseClient(&app.Config.Database.Postgres, app.Logger)
		dsn = app.Config.Database.Postgres.DSN
	default:
		return nil, fmt.Errorf("unsupported database type: %s", app.Config.Database.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client: %w", app.Config.Database.Type, err)
	}

	if err := dbClient.Connect(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", app.Config.Database.Type, err)
	}
	return dbClient, nil
}

func (app *App) initializeUserRepo(ctx context.Context) (interfaces.UserRepository, error) {
	var userRepo interfaces.UserRepository

	if app.Config.Database.Type == config.DatabaseMemory {
		userRepo = memoryUserRepo.NewMemoryUserRepository()
		app.Logger.Warn("Using the in-memory user store, accounts are lost on restart")
	} else {
		dbClient, err := app.initializeDBClient(ctx)
		if err != nil {
			return nil, err
		}

		switch app.Config.Database.Type {
		case config.DatabaseMongo:
			userRepo, err = mongoUserRepo.NewMongoUserRepository(dbClient)
		case config.DatabasePostgres:
			userRepo, err = postgresUserRepo.NewPostgresUserRepository(dbClient)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := userRepo.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indices: %w", err)
	}
	return userRepo, nil
}

func (app *App) initializePrivateKey() error {
	privateKey, err := auth.LoadECDSAPrivateKey(app.Config.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	app.privateKey = privateKey
	return nil
}

func (app *App) rateLimited() func(http.Handler) http.Handler {
	limiter := middleware.NewLimiter(app.Config.RateLimit.RequestsPerSecond, app.Config.RateLimit.Burst)
	return middleware.RateLimitMiddleware(limiter, app.Metrics)
}

func (app *App) addAPIRoutes(validator *structValidator.Validate) error {
	userService := userservice.NewUserService(app.UserRepo, app.Logger)
	route := routes.NewRoute(app.Metrics, userService, app.privateKey, validator, app.Logger)

	metricsHandler := promhttp.HandlerFor(app.Metrics.GetRegistry(), promhttp.HandlerOpts{})
	limit := app.rateLimited()

	handlers := []struct {
		pattern string
		handler http.Handler
	}{
		{routes.MetricsRouteAPI, otelhttp.NewHandler(metricsHandler, routes.MetricsRouteAPI)},
		{routes.HealthRouteAPI, http.HandlerFunc(route.Health)},
		{routes.SignupRouteAPI, limit(otelhttp.NewHandler(http.HandlerFunc(route.Signup), routes.SignupRouteAPI))},
		{routes.LoginRouteAPI, limit(otelhttp.NewHandler(http.HandlerFunc(route.Login), routes.LoginRouteAPI))},
	}
	for _, h := range handlers {
		if err := app.Server.Handle(h.pattern, h.handler); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) addPortalRoutes() error {
	portalCfg := app.Config.Portal
	authClient := authclient.NewClient(portalCfg.AuthBaseURL, portalCfg.RequestTimeout, app.Logger)
	scheduler := clock.New()
	opts := submission.Options{
		RedirectDelay: portalCfg.RedirectDelay,
		LoginPath:     portalCfg.LoginPath,
		AllowOverlap:  portalCfg.AllowOverlap,
	}

	app.Registry = portal.NewRegistry(func(nav interfaces.Navigator) *submission.Controller {
		return submission.NewController(authClient, nav, scheduler, app.Logger, app.Metrics, opts)
	}, scheduler, portalCfg.ViewTTL, app.Logger, app.Metrics)

	handler, err := portal.NewHandler(app.Registry, form.NewValidator(), authClient,
		app.Logger, app.Metrics, portalCfg.RequestTimeout, portalCfg.LoginPath)
	if err != nil {
		return fmt.Errorf("failed to parse portal templates: %w", err)
	}
	limit := app.rateLimited()

	handlers := []struct {
		pattern string
		handler http.Handler
	}{
		{"GET /{$}", http.HandlerFunc(handler.Index)},
		{"GET " + portal.SignupPath, http.HandlerFunc(handler.SignupPage)},
		{"POST " + portal.SignupPath, limit(http.HandlerFunc(handler.SignupSubmit))},
		{"GET " + portal.SignupStatePath, http.HandlerFunc(handler.SignupState)},
		{"GET " + handler.LoginPath(), http.HandlerFunc(handler.LoginPage)},
		{"POST " + handler.LoginPath(), limit(http.HandlerFunc(handler.LoginSubmit))},
	}
	for _, h := range handlers {
		if err := app.Server.Handle(h.pattern, h.handler); err != nil {
			return err
		}
	}
	return nil
}
