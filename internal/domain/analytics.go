package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const UnknownDistrict = "Unknown"

// Location is a best-effort geolocation of an IP address. Empty fields mean unknown.
type Location struct {
	City       string
	Region     string
	District   string
	PostalCode string
}

type GeoLocator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

type ScanLog struct {
	ID        int
	TicketID  int
	ShowID    int
	IPAddress string
	Location  Location
	ScannedAt time.Time
}

type VisitorLog struct {
	ID        int
	IPAddress string
	Location  Location
	CreatedAt time.Time
}

type MarketingScan struct {
	ID         int
	Identifier string
	IPAddress  string
	UserAgent  string
	Location   Location
	CreatedAt  time.Time
}

type MarketingFilters struct {
	From *time.Time
	To   *time.Time
	City string
}

type DistrictCount struct {
	District string
	Count    int
}

type IdentifierCount struct {
	Identifier string
	Count      int
}

type TicketAttendance struct {
	ShowID       int
	ShowName     string
	TotalBooked  int
	TotalScanned int
}

// AttendancePercentage is scanned over booked, rounded to two decimals.
func (a TicketAttendance) AttendancePercentage() float64 {
	if a.TotalBooked == 0 {
		return 0
	}

	pct := decimal.NewFromInt(int64(a.TotalScanned)).
		Div(decimal.NewFromInt(int64(a.TotalBooked))).
		Mul(decimal.NewFromInt(100)).
		Round(2)

	return pct.InexactFloat64()
}

type DashboardStats struct {
	TotalRevenue  decimal.Decimal
	RevenueToday  decimal.Decimal
	RevenueMonth  decimal.Decimal
	TotalBookings int
}

type AnalyticsRepository interface {
	CreateScanLog(ctx context.Context, log *ScanLog) error
	CreateVisitorLog(ctx context.Context, log *VisitorLog) error
	CreateMarketingScan(ctx context.Context, scan *MarketingScan) error
	VisitorsByDistrict(ctx context.Context) ([]DistrictCount, error)
	MarketingScansByIdentifier(ctx context.Context, filters MarketingFilters) ([]IdentifierCount, error)
	TicketAttendance(ctx context.Context) ([]TicketAttendance, error)
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)
}
