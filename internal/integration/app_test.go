package integration_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/app"
	"github.com/ravenent/show-booking-system/internal/mailer"
	"github.com/ravenent/show-booking-system/internal/realtime"
	"github.com/ravenent/show-booking-system/internal/storage"
	"github.com/ravenent/show-booking-system/internal/ticketing"
	appvalidator "github.com/ravenent/show-booking-system/internal/validator"
	"github.com/ravenent/show-booking-system/internal/worker"
)

type TestApp struct {
	App    *app.Application
	DB     *pgxpool.Pool
	Mailer *mailer.MockMailer
	Repos  app.Repositories
	Pool   *worker.Pool
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	validator := appvalidator.NewValidator()
	mailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := app.NewSessionManager(redisClient)

	store, err := storage.NewFileStore(cfg.MediaDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	repos := app.NewRepositories(db)

	pool := worker.NewPool(2, 16, 30*time.Second, worker.NewRedisStateStore(redisClient), logger)
	pool.Start()

	services := app.Services{
		Store:      store,
		Issuer:     ticketing.NewIssuer(cfg.BaseURL, cfg.Venue, store, repos.Tickets, repos.Shows, mailer, logger),
		Deliveries: pool,
		Hub:        realtime.NewHub(logger),
	}

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		validator,
		mailer,
		sessionManager,
		repos,
		services,
	)

	return &TestApp{
		App:    application,
		DB:     db,
		Mailer: mailer,
		Repos:  repos,
		Pool:   pool,
	}, nil
}
