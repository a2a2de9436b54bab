package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	appmiddleware "github.com/ravenent/show-booking-system/internal/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(appmiddleware.RealIP(app.config.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)

	r.Get("/health", app.GetHealth)

	if app.config.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(app.config.MediaDir))))
	}

	r.Route("/auth", func(r chi.Router) {
		if app.authLimiter != nil {
			r.Use(app.authLimiter.Limit)
		}

		r.Post("/signup", app.Signup)
		r.Post("/verify-email", app.VerifyEmail)
		r.Post("/verify-email/resend", app.ResendVerificationCode)
		r.Post("/login", app.Login)
		r.Post("/logout", app.Logout)
		r.Post("/password-reset", app.RequestPasswordReset)
		r.Put("/password-reset", app.CompletePasswordReset)
	})

	r.Get("/shows", app.ListShows)
	r.Get("/shows/{slug}", app.GetShow)
	r.Get("/shows/{showId}/seats", app.withID("showId", app.GetSeatMap))
	r.With(app.requireAuthentication).Post("/shows/{showId}/bookings", app.withID("showId", app.CreateBooking))
	r.Get("/ws/shows/{showId}/seats", app.withID("showId", app.SeatUpdates))

	r.Get("/qr/scan", app.MarketingScan)
	r.Get("/qr/shows/{showId}", app.withID("showId", app.ShowQRRedirect))
	r.Get("/qr/{ticketId}", app.withID("ticketId", app.ScanTicket))

	r.With(app.requireAuthentication).Route("/users/me", func(r chi.Router) {
		r.Get("/", app.GetCurrentUser)
		r.Patch("/", app.UpdateCurrentUser)
		r.Put("/password", app.ChangePassword)
		r.Get("/bookings", app.GetBookingsOfUser)
	})

	r.With(app.requireAuthentication).Route("/bookings/{bookingId}", func(r chi.Router) {
		r.Post("/payment-intent", app.withID("bookingId", app.CreatePaymentIntent))
		r.Put("/payment-status", app.withID("bookingId", app.UpdatePaymentStatus))
	})

	r.With(app.requireAuthentication).Get("/tickets/{ticketId}/pdf", app.withID("ticketId", app.DownloadTickets))

	r.Route("/admin", func(r chi.Router) {
		r.Use(app.requireAuthentication)
		r.Use(app.requireAdmin)

		r.Get("/dashboard", app.GetDashboard)

		r.Get("/shows", app.ListAllShows)
		r.Post("/shows", app.CreateShow)
		r.Patch("/shows/{showId}", app.withID("showId", app.UpdateShow))
		r.Delete("/shows/{showId}", app.withID("showId", app.DeleteShow))
		r.Put("/shows/{showId}/images/{kind}", app.withID("showId", app.UploadShowImage))
		r.Post("/shows/{showId}/media", app.withID("showId", app.UploadMedia))
		r.Delete("/media/{mediaId}", app.withID("mediaId", app.DeleteMedia))

		r.Post("/shows/{showId}/bookings", app.withID("showId", app.CreateOfflineBooking))
		r.Post("/shows/{showId}/scans", app.withID("showId", app.DoorScan))
		r.Get("/deliveries/{jobId}", app.GetDelivery)

		r.Get("/bookings", app.ListBookings)
		r.Get("/bookings/summary", app.GetBookingSummary)
		r.Put("/bookings/{bookingId}/seats", app.withID("bookingId", app.KeepBookingSeats))

		r.Get("/users", app.ListUsers)
		r.Put("/users/{userId}/role", app.withID("userId", app.UpdateUserRole))

		r.Get("/analytics/visitors", app.GetVisitorAnalytics)
		r.Get("/analytics/marketing", app.GetMarketingAnalytics)
		r.Get("/analytics/tickets", app.GetTicketAnalytics)
	})

	return r
}
