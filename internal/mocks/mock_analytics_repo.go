package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ravenent/show-booking-system/internal/domain"
)

// MockAnalyticsRepo records the logs written to it. Log writes happen on
// background goroutines, so recorded values are guarded.
type MockAnalyticsRepo struct {
	domain.AnalyticsRepository
	VisitorsByDistrictFunc         func(ctx context.Context) ([]domain.DistrictCount, error)
	MarketingScansByIdentifierFunc func(ctx context.Context, filters domain.MarketingFilters) ([]domain.IdentifierCount, error)
	TicketAttendanceFunc           func(ctx context.Context) ([]domain.TicketAttendance, error)
	DashboardFunc                  func(ctx context.Context, now time.Time) (*domain.DashboardStats, error)

	mu             sync.Mutex
	ScanLogs       []domain.ScanLog
	VisitorLogs    []domain.VisitorLog
	MarketingScans []domain.MarketingScan
}

func (m *MockAnalyticsRepo) CreateScanLog(_ context.Context, log *domain.ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ScanLogs = append(m.ScanLogs, *log)
	return nil
}

func (m *MockAnalyticsRepo) CreateVisitorLog(_ context.Context, log *domain.VisitorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.VisitorLogs = append(m.VisitorLogs, *log)
	return nil
}

func (m *MockAnalyticsRepo) CreateMarketingScan(_ context.Context, scan *domain.MarketingScan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MarketingScans = append(m.MarketingScans, *scan)
	return nil
}

// Recorded returns copies of everything logged so far.
func (m *MockAnalyticsRepo) Recorded() ([]domain.ScanLog, []domain.VisitorLog, []domain.MarketingScan) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.ScanLog(nil), m.ScanLogs...),
		append([]domain.VisitorLog(nil), m.VisitorLogs...),
		append([]domain.MarketingScan(nil), m.MarketingScans...)
}

func (m *MockAnalyticsRepo) VisitorsByDistrict(ctx context.Context) ([]domain.DistrictCount, error) {
	return m.VisitorsByDistrictFunc(ctx)
}

func (m *MockAnalyticsRepo) MarketingScansByIdentifier(
	ctx context.Context,
	filters domain.MarketingFilters) ([]domain.IdentifierCount, error) {

	return m.MarketingScansByIdentifierFunc(ctx, filters)
}

func (m *MockAnalyticsRepo) TicketAttendance(ctx context.Context) ([]domain.TicketAttendance, error) {
	return m.TicketAttendanceFunc(ctx)
}

func (m *MockAnalyticsRepo) Dashboard(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	return m.DashboardFunc(ctx, now)
}
