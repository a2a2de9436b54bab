package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/events"
	"github.com/ravenent/show-booking-system/internal/mailer"
	"github.com/ravenent/show-booking-system/internal/mocks"
	"github.com/ravenent/show-booking-system/internal/payment"
	"github.com/ravenent/show-booking-system/internal/realtime"
	"github.com/ravenent/show-booking-system/internal/validator"
	"github.com/ravenent/show-booking-system/internal/worker"
	"go.opentelemetry.io/otel/metric/noop"
)

// testNow is the fixed clock of handler tests.
var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestApplication(opts ...func(*Application)) *Application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		config: Config{
			Env:     "test",
			BaseURL: "https://tickets.example.com",
			Venue:   "Raven Hall, Kochi",
			UPI: UPIConfig{
				PayeeAddress: "ravenentertainment@upi",
				PayeeName:    "Raven Entertainment",
			},
			Marketing: MarketingConfig{RedirectURL: "https://ravenent.example.com/shows"},
		},
		validator:      validator.NewValidator(),
		logger:         logger,
		sessionManager: scs.New(),
		mailer:         mailer.NewMockMailer(),
		userRepo:       &mocks.MockUserRepo{},
		tokenRepo:      &mocks.MockTokenRepo{},
		showRepo:       &mocks.MockShowRepo{},
		seatRepo:       &mocks.MockSeatRepo{},
		bookingRepo:    &mocks.MockBookingRepo{},
		ticketRepo:     &mocks.MockTicketRepo{},
		mediaRepo:      &mocks.MockMediaRepo{},
		analyticsRepo:  &mocks.MockAnalyticsRepo{},
		issuer:         &mocks.MockTicketIssuer{},
		deliveries:     &fakeDeliveryQueue{},
		payments:       payment.NewUPIPaymentProvider("ravenentertainment@upi", "Raven Entertainment"),
		publisher:      events.NoopPublisher{},
		hub:            realtime.NewHub(logger),
		metrics:        mustBoxOfficeMetrics(noop.NewMeterProvider(), logger),
		now:            func() time.Time { return testNow },
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// fakeDeliveryQueue runs submitted jobs synchronously.
type fakeDeliveryQueue struct {
	mu     sync.Mutex
	jobs   map[string]*worker.JobState
	submit error
}

func (q *fakeDeliveryQueue) Submit(ctx context.Context, name string, fn func(context.Context) error) (string, error) {
	if q.submit != nil {
		return "", q.submit
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.jobs == nil {
		q.jobs = make(map[string]*worker.JobState)
	}

	state := &worker.JobState{
		ID:        "job-1",
		Name:      name,
		Status:    worker.StatusSucceeded,
		UpdatedAt: testNow,
	}

	if err := fn(ctx); err != nil {
		state.Status = worker.StatusFailed
		state.Error = err.Error()
	}

	q.jobs[state.ID] = state

	return state.ID, nil
}

func (q *fakeDeliveryQueue) Status(_ context.Context, id string) (*worker.JobState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	state, ok := q.jobs[id]
	if !ok {
		return nil, worker.ErrJobNotFound
	}

	return state, nil
}

func setupTestSession(t *testing.T, app *Application, r *http.Request, userId int) *http.Request {
	ctx, err := app.sessionManager.Load(r.Context(), "session")
	if err != nil {
		t.Errorf("Failed to load session: %v", err)
	}

	app.sessionManager.Put(ctx, SessionKeyUserId.String(), userId)

	return r.WithContext(ctx)
}

// withUser marks the request as authenticated the way requireAuthentication does.
func withUser(r *http.Request, userId int) *http.Request {
	ctx := context.WithValue(r.Context(), SessionKeyUserId, userId)
	return r.WithContext(ctx)
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(method, url, bytes.NewReader(jsonData))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
