package app

import (
	"flag"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/ravenent/show-booking-system/internal/middleware"
)

type Config struct {
	Port             int
	Env              string
	BaseURL          string
	MediaDir         string
	Venue            string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	SMTP             SMTPConfig
	UPI              UPIConfig
	Marketing        MarketingConfig
	Geo              GeoConfig
	AMQP             AMQPConfig
	Worker           WorkerConfig
	RateLimit        RateLimitConfig
	TrustedProxies   []netip.Prefix
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type UPIConfig struct {
	PayeeAddress string
	PayeeName    string
}

type MarketingConfig struct {
	RedirectURL string
}

type GeoConfig struct {
	BaseURL string
}

type AMQPConfig struct {
	URL string
}

type WorkerConfig struct {
	Size       int
	QueueSize  int
	JobTimeout time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// parseConfig reads command line flags. Every flag defaults to the environment
// variable named after it, e.g. -db-dsn falls back to DB_DSN.
func parseConfig(args []string) (Config, bool) {
	var cfg Config

	fs := flag.NewFlagSet("api", flag.ExitOnError)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envStr("ENV", "dev"), "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.BaseURL, "base-url", envStr("BASE_URL", "http://localhost:3000"), "Public base URL encoded in QR codes")
	fs.StringVar(&cfg.MediaDir, "media-dir", envStr("MEDIA_DIR", "./media"), "Directory for uploaded and generated media")
	fs.StringVar(&cfg.Venue, "venue", envStr("VENUE", "Raven Entertainment"), "Venue line printed on tickets")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envStr("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envStr("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envStr("REDIS_URL", ""), "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envStr("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envStr("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envStr("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envStr("SMTP_SENDER", "Raven Entertainment <no-reply@ravenentertainment.in>"), "SMTP sender")

	fs.StringVar(&cfg.UPI.PayeeAddress, "upi-payee-address", envStr("UPI_PAYEE_ADDRESS", "ravenentertainment@upi"), "UPI address payments are sent to")
	fs.StringVar(&cfg.UPI.PayeeName, "upi-payee-name", envStr("UPI_PAYEE_NAME", "Raven Entertainment"), "UPI payee display name")

	fs.StringVar(&cfg.Marketing.RedirectURL, "marketing-redirect-url", envStr("MARKETING_REDIRECT_URL", "http://localhost:3000/shows"), "Target of marketing QR scans")
	fs.StringVar(&cfg.Geo.BaseURL, "geo-base-url", envStr("GEO_BASE_URL", "http://ip-api.com"), "IP geolocation service base URL")
	fs.StringVar(&cfg.AMQP.URL, "amqp-url", envStr("AMQP_URL", ""), "RabbitMQ URL for booking events, empty disables publishing")

	fs.IntVar(&cfg.Worker.Size, "delivery-workers", envInt("DELIVERY_WORKERS", 4), "Ticket delivery workers")
	fs.IntVar(&cfg.Worker.QueueSize, "delivery-queue-size", envInt("DELIVERY_QUEUE_SIZE", 100), "Ticket delivery queue size")
	fs.DurationVar(&cfg.Worker.JobTimeout, "delivery-timeout", envDuration("DELIVERY_TIMEOUT", 2*time.Minute), "Timeout of a single ticket delivery")

	fs.IntVar(&cfg.RateLimit.Requests, "auth-rate-limit", envInt("AUTH_RATE_LIMIT", 20), "Requests per window allowed on /auth per IP, 0 disables")
	fs.DurationVar(&cfg.RateLimit.Window, "auth-rate-window", envDuration("AUTH_RATE_WINDOW", time.Minute), "Window of the /auth rate limit")

	// a malformed environment value leaves no proxy trusted
	cfg.TrustedProxies, _ = middleware.ParseTrustedProxies(envStr("TRUSTED_PROXIES", ""))
	fs.Func("trusted-proxies", "Comma separated CIDRs of reverse proxies allowed to set X-Forwarded-For", func(v string) error {
		prefixes, err := middleware.ParseTrustedProxies(v)
		if err != nil {
			return err
		}
		cfg.TrustedProxies = prefixes
		return nil
	})

	displayVersion := fs.Bool("version", false, "Display version and exit")

	fs.Parse(args)

	return cfg, *displayVersion
}

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}
