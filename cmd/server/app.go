package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/marginalia/internal/api"
	"github.com/phrazzld/marginalia/internal/config"
	"github.com/phrazzld/marginalia/internal/events"
	"github.com/phrazzld/marginalia/internal/feature"
	"github.com/phrazzld/marginalia/internal/notification"
	"github.com/phrazzld/marginalia/internal/platform/postgres"
	"github.com/phrazzld/marginalia/internal/platform/redis"
	"github.com/phrazzld/marginalia/internal/service"
	"github.com/phrazzld/marginalia/internal/service/auth"
	"github.com/phrazzld/marginalia/internal/task"
)

// application holds the process-wide dependencies and closes them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	enqueuer *task.Enqueuer
	features *feature.Client
	emitter  *events.InMemoryEventEmitter

	users         service.UserService
	annotations   service.AnnotationService
	listGroups    *service.ListGroupsService
	groups        *service.GroupService
	groupLinks    *service.GroupLinksService
	subscriptions *service.SubscriptionService
	groupStore    *postgres.PostgresGroupStore
}

// newApplication wires stores, services and the event subscribers.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{config: cfg, logger: logger, db: db}

	redisOpt, err := redis.AsynqOpt(cfg.Broker.URL)
	if err != nil {
		return nil, err
	}
	app.redis, err = redis.NewClient(cfg.Broker.URL)
	if err != nil {
		return nil, err
	}
	app.enqueuer = task.NewEnqueuer(redisOpt, logger)

	if err := app.wire(); err != nil {
		app.cleanup()
		return nil, err
	}
	logger.Info("application initialized")
	return app, nil
}

// wire builds everything that does not open a connection of its own.
func (app *application) wire() error {
	cfg, logger, db := app.config, app.logger, app.db

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	bcrypt := auth.NewBcryptVerifier()

	userStore := postgres.NewPostgresUserStore(db, logger)
	authStore := postgres.NewPostgresAuthStore(db, logger)
	annotationStore := postgres.NewPostgresAnnotationStore(db, logger)
	subscriptionStore := postgres.NewPostgresSubscriptionStore(db, logger)
	searchIndex := postgres.NewPostgresSearchIndex(db, logger)
	app.groupStore = postgres.NewPostgresGroupStore(db, logger)
	app.features = feature.NewClient(postgres.NewPostgresFeatureStore(db, logger), logger)

	app.emitter = events.NewInMemoryEventEmitter(logger)
	templates, err := notification.LoadTemplates()
	if err != nil {
		return fmt.Errorf("failed to load notification templates: %w", err)
	}
	dispatcher, err := notification.NewDispatcher(
		annotationStore,
		subscriptionStore,
		userStore,
		app.enqueuer,
		templates,
		notification.Config{Domain: cfg.Server.Domain, Scheme: cfg.Server.Scheme},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification dispatcher: %w", err)
	}
	dispatcher.Register(app.emitter)

	app.users, err = service.NewUserService(
		userStore,
		authStore,
		db,
		bcrypt,
		bcrypt,
		jwtService,
		app.emitter,
		service.UserServiceConfig{
			Authority:      cfg.Server.Domain,
			TicketLifetime: time.Duration(cfg.Auth.AuthTicketLifetimeHours) * time.Hour,
			TokenLifetime:  time.Duration(cfg.Auth.DeveloperTokenLifetimeDays) * 24 * time.Hour,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}

	app.annotations, err = service.NewAnnotationService(
		annotationStore,
		app.groupStore,
		searchIndex,
		db,
		app.enqueuer,
		app.emitter,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create annotation service: %w", err)
	}

	app.listGroups = service.NewListGroupsService(app.groupStore, cfg.Server.Domain)
	app.groups = service.NewGroupService(app.groupStore, userStore, logger)
	app.groupLinks, err = service.NewGroupLinksService(cfg.Server.BaseURL())
	if err != nil {
		return err
	}
	app.subscriptions = service.NewSubscriptionService(subscriptionStore, logger)
	return nil
}

// healthChecks are the dependencies /health pings.
func (app *application) healthChecks() map[string]api.HealthCheck {
	return map[string]api.HealthCheck{
		"postgres": app.db.PingContext,
		"redis": func(ctx context.Context) error {
			return redis.Ping(ctx, app.redis)
		},
	}
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup closes connections in reverse order of opening.
func (app *application) cleanup() {
	if app.enqueuer != nil {
		if err := app.enqueuer.Close(); err != nil {
			app.logger.Error("error closing task enqueuer", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
