package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/events"
	"github.com/ravenent/show-booking-system/internal/geo"
	"github.com/ravenent/show-booking-system/internal/mailer"
	"github.com/ravenent/show-booking-system/internal/middleware"
	"github.com/ravenent/show-booking-system/internal/payment"
	"github.com/ravenent/show-booking-system/internal/realtime"
	"github.com/ravenent/show-booking-system/internal/repository"
	"github.com/ravenent/show-booking-system/internal/storage"
	"github.com/ravenent/show-booking-system/internal/ticketing"
	appvalidator "github.com/ravenent/show-booking-system/internal/validator"
	"github.com/ravenent/show-booking-system/internal/vcs"
	"github.com/ravenent/show-booking-system/internal/worker"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/metric"
)

const serviceName = "show-booking-api"

var (
	version = vcs.Version()
)

// TicketIssuer produces and delivers the printable tickets of a booking.
type TicketIssuer interface {
	Issue(ctx context.Context, d ticketing.Delivery) error
	RenderPDF(ctx context.Context, d ticketing.Delivery) ([]byte, error)
	Invalidate(ctx context.Context, userID, bookingID int) error
	IssueShowQR(ctx context.Context, show *domain.Show) error
}

// DeliveryQueue runs ticket deliveries off the request path.
type DeliveryQueue interface {
	Submit(ctx context.Context, name string, fn func(context.Context) error) (string, error)
	Status(ctx context.Context, id string) (*worker.JobState, error)
}

type Application struct {
	config         Config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager

	userRepo      domain.UserRepository
	tokenRepo     domain.TokenRepository
	showRepo      domain.ShowRepository
	seatRepo      domain.SeatRepository
	bookingRepo   domain.BookingRepository
	ticketRepo    domain.TicketRepository
	mediaRepo     domain.MediaRepository
	analyticsRepo domain.AnalyticsRepository

	store       storage.Store
	geo         domain.GeoLocator
	issuer      TicketIssuer
	deliveries  DeliveryQueue
	payments    domain.PaymentProvider
	publisher   events.Publisher
	hub         *realtime.Hub
	authLimiter *middleware.RateLimiter
	metrics     *boxOfficeMetrics

	now func() time.Time
	wg  sync.WaitGroup
}

type Repositories struct {
	Users     domain.UserRepository
	Tokens    domain.TokenRepository
	Shows     domain.ShowRepository
	Seats     domain.SeatRepository
	Bookings  domain.BookingRepository
	Tickets   domain.TicketRepository
	Media     domain.MediaRepository
	Analytics domain.AnalyticsRepository
}

type Services struct {
	Store       storage.Store
	Geo         domain.GeoLocator
	Issuer      TicketIssuer
	Deliveries  DeliveryQueue
	Publisher   events.Publisher
	Hub         *realtime.Hub
	AuthLimiter *middleware.RateLimiter

	// MeterProvider defaults to the global provider
	MeterProvider metric.MeterProvider
}

func NewRepositories(db *pgxpool.Pool) Repositories {
	return Repositories{
		Users:     repository.NewPostgresUserRepository(db),
		Tokens:    repository.NewPostgresTokenRepository(db),
		Shows:     repository.NewPostgresShowRepository(db),
		Seats:     repository.NewPostgresSeatRepository(db),
		Bookings:  repository.NewPostgresBookingRepository(db),
		Tickets:   repository.NewPostgresTicketRepository(db),
		Media:     repository.NewPostgresMediaRepository(db),
		Analytics: repository.NewPostgresAnalyticsRepository(db),
	}
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	db *pgxpool.Pool,
	redis redis.UniversalClient,
	validator *validator.Validate,
	mailer mailer.Mailer,
	sessionManager *scs.SessionManager,
	repos Repositories,
	services Services,
) *Application {
	publisher := services.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	return &Application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redis,
		validator:      validator,
		mailer:         mailer,
		sessionManager: sessionManager,
		userRepo:       repos.Users,
		tokenRepo:      repos.Tokens,
		showRepo:       repos.Shows,
		seatRepo:       repos.Seats,
		bookingRepo:    repos.Bookings,
		ticketRepo:     repos.Tickets,
		mediaRepo:      repos.Media,
		analyticsRepo:  repos.Analytics,
		store:          services.Store,
		geo:            services.Geo,
		issuer:         services.Issuer,
		deliveries:     services.Deliveries,
		payments:       payment.NewUPIPaymentProvider(cfg.UPI.PayeeAddress, cfg.UPI.PayeeName),
		publisher:      publisher,
		hub:            services.Hub,
		authLimiter:    services.AuthLimiter,
		metrics:        mustBoxOfficeMetrics(services.MeterProvider, logger),
		now:            time.Now,
	}
}

func Run() error {
	// a missing .env file is fine, flags and the environment still apply
	_ = godotenv.Load()

	cfg, displayVersion := parseConfig(os.Args[1:])

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := newLogger(cfg)

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	store, err := storage.NewFileStore(cfg.MediaDir)
	if err != nil {
		return err
	}

	repos := NewRepositories(db)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)

	pool := worker.NewPool(
		cfg.Worker.Size,
		cfg.Worker.QueueSize,
		cfg.Worker.JobTimeout,
		worker.NewRedisStateStore(redisClient),
		logger,
	)
	pool.Start()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQP.URL, logger)
	}
	defer publisher.Close()

	services := Services{
		Store:       store,
		Geo:         geo.NewIPAPILocator(cfg.Geo.BaseURL, redisClient, logger),
		Issuer:      ticketing.NewIssuer(cfg.BaseURL, cfg.Venue, store, repos.Tickets, repos.Shows, smtpMailer, logger),
		Deliveries:  pool,
		Publisher:   publisher,
		Hub:         realtime.NewHub(logger),
		AuthLimiter: middleware.NewRateLimiter(redisClient, "auth", cfg.RateLimit.Requests, cfg.RateLimit.Window, logger),
	}

	app := NewApp(
		cfg,
		logger,
		db,
		redisClient,
		appvalidator.NewValidator(),
		smtpMailer,
		NewSessionManager(redisClient),
		repos,
		services,
	)

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.serve(pool)
}

func newLogger(cfg Config) *slog.Logger {
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)

	if cfg.OtelCollectorUrl != "" {
		handler = NewMultiHandler(handler, otelslog.NewHandler(serviceName))
	}

	return slog.New(handler)
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) serve(pool *worker.Pool) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		app.logger.Info("completing background tasks", "addr", srv.Addr)

		app.wg.Wait()

		shutdownError <- pool.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

// Wait blocks until every background task started by a request has finished.
func (app *Application) Wait() {
	app.wg.Wait()
}

// background runs fn outside the request, recovering and logging panics.
func (app *Application) background(logger *slog.Logger, fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic in background task", "panic", fmt.Sprintf("%v", err))
			}
		}()

		fn()
	}()
}
