package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/influence/internal/auth"
	"github.com/mrlokans/influence/internal/config"
	"github.com/mrlokans/influence/internal/database"
	"github.com/mrlokans/influence/internal/database/announcements"
	"github.com/mrlokans/influence/internal/database/applications"
	"github.com/mrlokans/influence/internal/database/companies"
	"github.com/mrlokans/influence/internal/database/entitystore"
	"github.com/mrlokans/influence/internal/database/influencers"
	http_controllers "github.com/mrlokans/influence/internal/http"
	"github.com/mrlokans/influence/internal/logging"
	"github.com/mrlokans/influence/internal/scheduler"
	"github.com/mrlokans/influence/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Repositories groups the per-entity stores built over one database.
type Repositories struct {
	Companies     *companies.Repository
	Influencers   *influencers.Repository
	Announcements *announcements.Repository
	Applications  *applications.Repository
}

// NewRepositories builds every repository over db.
func NewRepositories(db *database.Database) (*Repositories, error) {
	companiesRepo, err := companies.NewRepository(db)
	if err != nil {
		return nil, err
	}
	influencersRepo, err := influencers.NewRepository(db)
	if err != nil {
		return nil, err
	}
	announcementsRepo, err := announcements.NewRepository(db)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Companies:     companiesRepo,
		Influencers:   influencersRepo,
		Announcements: announcementsRepo,
		Applications:  applications.NewRepository(db.DB),
	}, nil
}

func Serve(router *gin.Engine, cfg *config.Config, logger zerolog.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown")
	}

	logger.Info().Msg("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logger, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info().Str("version", version).Msg("Starting Infinite Influence")

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing database")
		}
	}()

	repos, err := NewRepositories(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build repositories")
	}

	authService := auth.NewService(repos.Companies, repos.Influencers, cfg.Auth)

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		Companies:     repos.Companies,
		Influencers:   repos.Influencers,
		Announcements: repos.Announcements,
		Applications:  repos.Applications,
		AuthService:   authService,
		AuthConfig:    cfg.Auth,
		SecureCookies: cfg.Auth.SecureCookies,
		Logger:        logger,
		SiteName:      cfg.UI.SiteName,
		Version:       version,
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info().Msg("Authentication mode: local")

		// Sessions share the application database only on SQLite; other
		// drivers keep them in memory.
		sessionDB := db.SQL()
		if db.Dialect() != entitystore.SQLite {
			sessionDB = nil
		}
		sessionManager, err := auth.NewSessionManager(sessionDB, cfg.Auth)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize session manager")
		}
		routerCfg.SessionManager = sessionManager
		routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		routerCfg.CSRFSecret, err = csrfSecret(cfg.Auth.SessionSecret)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to generate CSRF secret")
		}
		if cfg.Auth.SessionSecret == "" {
			logger.Warn().Msg("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}
	} else {
		logger.Info().Msg("Authentication mode: none (accounts are not enforced)")
	}

	var taskClient *tasks.Client
	var expiryScheduler *scheduler.ExpiryScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasksDBPath(cfg.Database), tasks.FromConfig(cfg.Tasks), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("Error closing task client")
			}
		}()

		taskClient.Register(tasks.NewCloseExpiredQueue(repos.Announcements, logger))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Scheduler.ExpirySchedule != "" {
			expiryScheduler = scheduler.NewExpiryScheduler(taskClient, cfg.Scheduler.ExpirySchedule, logger)
			if err := expiryScheduler.Start(taskCtx); err != nil {
				logger.Fatal().Err(err).Msg("Failed to start expiry scheduler")
			}
		}

		routerCfg.TaskClient = taskClient
	}

	router, err := http_controllers.NewRouter(routerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build router")
	}

	onShutdown := func(ctx context.Context) {
		if expiryScheduler != nil {
			expiryScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, logger, onShutdown)
}

// csrfSecret decodes a hex secret, falls back to its raw bytes, or generates
// a fresh one when none is configured.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(secret)
}

// tasksDBPath places the queue database next to the SQLite file, or next to
// the default path when the application runs on a server database.
func tasksDBPath(cfg config.Database) string {
	if dialect, err := entitystore.DialectFor(cfg.Driver); err == nil && dialect == entitystore.SQLite && !isMemoryDSN(cfg.DSN) {
		return tasks.TasksDBPath(cfg.DSN)
	}
	return tasks.TasksDBPath(config.DefaultDatabasePath)
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
