package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
)

type PostgresAnalyticsRepository struct {
	db *pgxpool.Pool
}

func NewPostgresAnalyticsRepository(db *pgxpool.Pool) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{
		db: db,
	}
}

func (p *PostgresAnalyticsRepository) CreateScanLog(ctx context.Context, log *domain.ScanLog) error {
	query := `
		INSERT INTO qr_scan_logs (ticket_id, show_id, ip_address, city, region, district, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, scanned_at
	`

	return p.db.QueryRow(ctx,
		query,
		log.TicketID,
		log.ShowID,
		nullIfEmpty(log.IPAddress),
		nullIfEmpty(log.Location.City),
		nullIfEmpty(log.Location.Region),
		nullIfEmpty(log.Location.District),
		nullIfEmpty(log.Location.PostalCode)).Scan(&log.ID, &log.ScannedAt)
}

func (p *PostgresAnalyticsRepository) CreateVisitorLog(ctx context.Context, log *domain.VisitorLog) error {
	district := log.Location.District
	if district == "" {
		district = domain.UnknownDistrict
	}

	query := `
		INSERT INTO visitor_logs (ip_address, city, region, district, postal_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return p.db.QueryRow(ctx,
		query,
		log.IPAddress,
		nullIfEmpty(log.Location.City),
		nullIfEmpty(log.Location.Region),
		district,
		nullIfEmpty(log.Location.PostalCode)).Scan(&log.ID, &log.CreatedAt)
}

func (p *PostgresAnalyticsRepository) CreateMarketingScan(ctx context.Context, scan *domain.MarketingScan) error {
	query := `
		INSERT INTO qr_marketing_scans (identifier, ip_address, city, region, district, postal_code, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	return p.db.QueryRow(ctx,
		query,
		scan.Identifier,
		nullIfEmpty(scan.IPAddress),
		nullIfEmpty(scan.Location.City),
		nullIfEmpty(scan.Location.Region),
		nullIfEmpty(scan.Location.District),
		nullIfEmpty(scan.Location.PostalCode),
		scan.UserAgent).Scan(&scan.ID, &scan.CreatedAt)
}

func (p *PostgresAnalyticsRepository) VisitorsByDistrict(ctx context.Context) ([]domain.DistrictCount, error) {
	query := `
		SELECT district, COUNT(*) AS visits
		FROM visitor_logs
		GROUP BY district
		ORDER BY visits DESC, district
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DistrictCount, error) {
		var c domain.DistrictCount
		err := row.Scan(&c.District, &c.Count)
		return c, err
	})
}

// MarketingScansByIdentifier counts scans per identifier within [From, To) and,
// when set, a case-insensitive city.
func (p *PostgresAnalyticsRepository) MarketingScansByIdentifier(
	ctx context.Context,
	filters domain.MarketingFilters) ([]domain.IdentifierCount, error) {

	query := `
		SELECT identifier, COUNT(*) AS scans
		FROM qr_marketing_scans
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
			AND ($2::timestamptz IS NULL OR created_at < $2)
			AND ($3 = '' OR LOWER(city) = LOWER($3))
		GROUP BY identifier
		ORDER BY scans DESC, identifier
	`

	rows, err := p.db.Query(ctx, query, filters.From, filters.To, filters.City)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.IdentifierCount, error) {
		var c domain.IdentifierCount
		err := row.Scan(&c.Identifier, &c.Count)
		return c, err
	})
}

func (p *PostgresAnalyticsRepository) TicketAttendance(ctx context.Context) ([]domain.TicketAttendance, error) {
	query := `
		SELECT s.id, s.name, COUNT(t.id), COUNT(t.id) FILTER (WHERE t.is_scanned)
		FROM shows s
		LEFT JOIN tickets t ON t.show_id = s.id
		GROUP BY s.id
		ORDER BY s.show_date DESC, s.id DESC
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TicketAttendance, error) {
		var a domain.TicketAttendance
		err := row.Scan(&a.ShowID, &a.ShowName, &a.TotalBooked, &a.TotalScanned)
		return a, err
	})
}

// Dashboard sums revenue. Total revenue counts paid bookings only, while the daily
// and monthly figures count every booking created in the period.
func (p *PostgresAnalyticsRepository) Dashboard(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	query := `
		SELECT
			COALESCE(SUM(total_price) FILTER (WHERE payment_status = $1), 0),
			COALESCE(SUM(total_price) FILTER (WHERE created_at >= $2), 0),
			COALESCE(SUM(total_price) FILTER (WHERE created_at >= $3), 0),
			COUNT(*)
		FROM bookings
	`

	var stats domain.DashboardStats

	err := p.db.QueryRow(ctx, query, string(domain.PaymentPaid), startOfDay, startOfMonth).Scan(
		&stats.TotalRevenue,
		&stats.RevenueToday,
		&stats.RevenueMonth,
		&stats.TotalBookings,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
