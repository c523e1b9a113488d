package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
	authPostgres "github.com/frahmantamala/donation-management/internal/auth/postgres"
	"github.com/frahmantamala/donation-management/internal/blobstore"
	"github.com/frahmantamala/donation-management/internal/cause"
	causePostgres "github.com/frahmantamala/donation-management/internal/cause/postgres"
	"github.com/frahmantamala/donation-management/internal/core/database"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/frahmantamala/donation-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/donation-management/internal/permission/postgres"
	"github.com/frahmantamala/donation-management/internal/role"
	rolePostgres "github.com/frahmantamala/donation-management/internal/role/postgres"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/frahmantamala/donation-management/internal/transport/middleware"
	"github.com/frahmantamala/donation-management/internal/transport/rest"
	"github.com/frahmantamala/donation-management/internal/transport/swagger"
	"github.com/frahmantamala/donation-management/internal/user"
	userPostgres "github.com/frahmantamala/donation-management/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var openAPIPath string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().StringVar(&openAPIPath, "openapi", "api/openapi.yml", "OpenAPI document served at /openapi.yml")
}

type Dependencies struct {
	Config  *internal.Config
	DB      *database.DB
	Blobs   blobstore.Store
	Router  *chi.Mux
	Logger  *slog.Logger
	closers []func() error
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Error("close dependency", "error", err)
		}
	}
}

func startHTTPServer() {
	ctx := context.Background()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "db_driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := configureLogger(config)

	deps := &Dependencies{Config: config, Logger: lg, Router: chi.NewRouter()}

	db, err := database.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db
	deps.closers = append(deps.closers, db.Close)

	blobs, closeBlobs, err := newBlobStore(ctx, config.Storage)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	deps.Blobs = blobs
	deps.closers = append(deps.closers, closeBlobs)

	var identity auth.IdentityVerifier
	if config.Security.GoogleClientID != "" {
		verifier, err := auth.NewGoogleVerifier(ctx, config.Security.GoogleClientID)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize google login: %w", err)
		}
		identity = verifier
	}

	doc, err := swagger.Load(ctx, openAPIPath)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to load api document: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	cause.NewEventHandler(blobs, lg).RegisterEventHandlers(eventBus)

	limits := cause.UploadLimits{MaxFileSize: config.Storage.MaxFileSize, MaxFiles: config.Storage.MaxFiles}
	base := transport.NewBaseHandler(lg)
	tokens := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)

	authService := auth.NewService(authPostgres.NewRepository(db.Gorm), tokens, identity, lg)
	userService := user.NewService(userPostgres.NewUserRepository(db.Gorm), config.Security.BCryptCost, lg)
	roleService := role.NewService(rolePostgres.NewRoleRepository(db.Gorm), lg)
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db.Gorm), lg)
	causeService := cause.NewService(causePostgres.NewCauseRepository(db.Gorm), blobs, eventBus, limits, lg)
	donationService := donation.NewService(
		donationPostgres.NewDonationRepository(db.Gorm),
		donationPostgres.NewSummaryRepository(db.SQLX),
		lg,
	)

	routes := rest.Dependencies{
		Health:         rest.NewHealthHandler(db.SQLX, config.Database.Driver),
		Auth:           auth.NewHandler(authService, lg),
		RBAC:           auth.NewRBACAuthorization(base),
		User:           user.NewHandler(base, userService),
		Role:           role.NewHandler(base, roleService),
		Permission:     permission.NewHandler(base, permissionService),
		Cause:          cause.NewHandler(base, causeService, limits),
		Donation:       donation.NewHandler(base, donationService),
		AllowedOrigins: config.Server.Origins(),
		OpenAPI:        doc,
	}
	if config.Observability.Metrics.Enabled {
		routes.Metrics = middleware.NewMetrics("donations")
		routes.MetricsPath = config.Observability.Metrics.Path
	}
	rest.RegisterAllRoutes(deps.Router, routes)

	return deps, nil
}

func newBlobStore(ctx context.Context, cfg internal.StorageConfig) (blobstore.Store, func() error, error) {
	switch cfg.Driver {
	case internal.StorageDriverGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.NewClient: %w", err)
		}
		return blobstore.NewGCSStore(client, cfg.Bucket, cfg.PublicBaseURL), client.Close, nil
	default:
		return blobstore.NewMemoryStore(cfg.PublicBaseURL), func() error { return nil }, nil
	}
}
