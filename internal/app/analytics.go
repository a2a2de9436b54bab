package app

import (
	"net/http"
	"strings"

	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
)

func (app *Application) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := app.analyticsRepo.Dashboard(r.Context(), app.now())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	shows, err := app.showRepo.GetAllWithStats(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.DashboardResponse{
		TotalRevenue:  stats.TotalRevenue,
		RevenueToday:  stats.RevenueToday,
		RevenueMonth:  stats.RevenueMonth,
		TotalBookings: stats.TotalBookings,
		Shows:         toShowListItems(shows),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetVisitorAnalytics(w http.ResponseWriter, r *http.Request) {
	counts, err := app.analyticsRepo.VisitorsByDistrict(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.DistrictCount, len(counts))
	for i, c := range counts {
		resp[i] = api.DistrictCount{District: c.District, Count: c.Count}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMarketingAnalytics(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	var issues []api.ValidationError

	from, issue := readDate(qs, "startDate")
	if issue != nil {
		issues = append(issues, *issue)
	}

	to, issue := readDate(qs, "endDate")
	if issue != nil {
		issues = append(issues, *issue)
	}

	if len(issues) > 0 {
		app.validationErrorResponse(w, r, issues)
		return
	}

	filters := domain.MarketingFilters{
		From: from,
		City: strings.TrimSpace(qs.Get("city")),
	}

	// endDate is inclusive, the query bound is not
	if to != nil {
		end := to.AddDate(0, 0, 1)
		filters.To = &end
	}

	counts, err := app.analyticsRepo.MarketingScansByIdentifier(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.IdentifierCount, len(counts))
	for i, c := range counts {
		resp[i] = api.IdentifierCount{Identifier: c.Identifier, Count: c.Count}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetTicketAnalytics(w http.ResponseWriter, r *http.Request) {
	attendance, err := app.analyticsRepo.TicketAttendance(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]api.TicketAttendance, len(attendance))
	for i, a := range attendance {
		resp[i] = api.TicketAttendance{
			ShowId:               a.ShowID,
			ShowName:             a.ShowName,
			TotalBooked:          a.TotalBooked,
			TotalScanned:         a.TotalScanned,
			AttendancePercentage: a.AttendancePercentage(),
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
