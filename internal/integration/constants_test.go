package integration_test

import (
	"time"

	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	TestBaseURL      = "https://tickets.example.com"
	TestVenue        = "Raven Hall, Kochi"
	TestMarketingURL = "https://ravenent.example.com/shows"

	// User related constants
	TestUsername     = "freddie"
	TestUserEmail    = "freddie@example.com"
	TestUserPassword = "Test123!@#"

	TestAdminUsername = "brian"
	TestAdminEmail    = "brian@example.com"
	TestAdminPassword = "Admin123!@#"

	// Show related constants
	TestShowName = "Raven Live in Kochi"
	TestShowSlug = "raven-live-in-kochi"
	TestShowTime = "19:30"

	TestTokenScope = domain.EmailVerificationScope
)

var (
	TestSeatPrice = decimal.RequireFromString("499.00")
	// TestShowDate is two weeks ahead so bookings stay open whenever the suite runs.
	TestShowDate = time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
)
