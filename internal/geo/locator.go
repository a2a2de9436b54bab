package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "http://ip-api.com"

	requestTimeout = 2 * time.Second
	cacheTTL       = 24 * time.Hour
	cachePrefix    = "geo:"
)

type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	District   string `json:"district"`
	Zip        string `json:"zip"`
}

// IPAPILocator resolves IP addresses through the ip-api.com JSON endpoint and
// caches answers in Redis.
type IPAPILocator struct {
	baseURL string
	client  *http.Client
	cache   redis.UniversalClient
	logger  *slog.Logger
}

func NewIPAPILocator(baseURL string, cache redis.UniversalClient, logger *slog.Logger) *IPAPILocator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &IPAPILocator{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:  cache,
		logger: logger,
	}
}

// Locate returns an empty location for loopback and private addresses without
// calling out. When the service has no district, the city stands in for it.
func (l *IPAPILocator) Locate(ctx context.Context, ip string) (domain.Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return domain.Location{}, fmt.Errorf("invalid ip address %q", ip)
	}

	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return domain.Location{}, nil
	}

	if loc, ok := l.cached(ctx, ip); ok {
		return loc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", l.baseURL, url.PathEscape(ip),
		url.QueryEscape("status,message,city,regionName,district,zip"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Location{}, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return domain.Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, fmt.Errorf("geolocation lookup failed with status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Location{}, err
	}

	if body.Status != "success" {
		return domain.Location{}, fmt.Errorf("geolocation lookup failed: %s", body.Message)
	}

	loc := domain.Location{
		City:       body.City,
		Region:     body.RegionName,
		District:   body.District,
		PostalCode: body.Zip,
	}

	if loc.District == "" {
		loc.District = loc.City
	}

	l.store(ctx, ip, loc)

	return loc, nil
}

func (l *IPAPILocator) cached(ctx context.Context, ip string) (domain.Location, bool) {
	if l.cache == nil {
		return domain.Location{}, false
	}

	raw, err := l.cache.Get(ctx, cachePrefix+ip).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to read geolocation cache", "ip", ip, "error", err)
		}

		return domain.Location{}, false
	}

	var loc domain.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return domain.Location{}, false
	}

	return loc, true
}

func (l *IPAPILocator) store(ctx context.Context, ip string, loc domain.Location) {
	if l.cache == nil {
		return
	}

	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}

	err = l.cache.Set(ctx, cachePrefix+ip, raw, cacheTTL).Err()
	if err != nil {
		l.logger.Warn("failed to write geolocation cache", "ip", ip, "error", err)
	}
}
