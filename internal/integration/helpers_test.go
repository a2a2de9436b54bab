package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string, cookies []*http.Cookie) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req, nil
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		return k == "timestamp" || k == "requestId" || k == "createdAt"
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

// do sends a JSON request through the router and waits for its background work.
func do(t testing.TB, app *TestApp, method, path string, body any, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := prepareRequest(method, path, reader, nil, cookies)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.App.Routes().ServeHTTP(rec, req)
	app.App.Wait()

	return rec.Result()
}

func decode[T any](t testing.TB, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func truncateAll(t testing.TB, db *pgxpool.Pool) {
	_, err := db.Exec(context.Background(), `
		TRUNCATE users, tokens, shows, bookings, seats, tickets, media_files,
			qr_scan_logs, visitor_logs, qr_marketing_scans
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func createUser(t testing.TB, db *pgxpool.Pool, username, email, password string, role domain.Role, verified bool) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	var id int
	err = db.QueryRow(context.Background(), `
		INSERT INTO users (username, email, password_hash, role, email_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		username, email, hash, string(role), verified).Scan(&id)
	require.NoError(t, err)

	return id
}

// login signs the user in and returns the session cookie.
func login(t testing.TB, app *TestApp, login, password string) []*http.Cookie {
	t.Helper()

	res := do(t, app, http.MethodPost, "/auth/login", map[string]string{
		"login":    login,
		"password": password,
	}, nil)
	defer res.Body.Close()

	require.Equal(t, http.StatusNoContent, res.StatusCode)
	require.NotEmpty(t, res.Cookies())

	return res.Cookies()
}

func signInUser(t testing.TB, app *TestApp) (int, []*http.Cookie) {
	id := createUser(t, app.DB, TestUsername, TestUserEmail, TestUserPassword, domain.RoleUser, true)
	return id, login(t, app, TestUserEmail, TestUserPassword)
}

func signInAdmin(t testing.TB, app *TestApp) (int, []*http.Cookie) {
	id := createUser(t, app.DB, TestAdminUsername, TestAdminEmail, TestAdminPassword, domain.RoleAdmin, true)
	return id, login(t, app, TestAdminUsername, TestAdminPassword)
}

func createShow(t testing.TB, app *TestApp, name string, date time.Time, includeBalcony bool) *domain.Show {
	showTime, err := domain.ParseClock(TestShowTime)
	require.NoError(t, err)

	show := &domain.Show{
		Name:           name,
		Date:           date,
		Time:           showTime,
		SeatPrice:      TestSeatPrice,
		IncludeBalcony: includeBalcony,
	}

	err = app.Repos.Shows.CreateWithSeats(context.Background(), show, func(s *domain.Show) []domain.Seat {
		return domain.GenerateSeatLayout(s.IncludeBalcony)
	})
	require.NoError(t, err)

	return show
}

func seatIDs(t testing.TB, db *pgxpool.Pool, showID int, numbers ...string) []int {
	ids := make([]int, 0, len(numbers))

	for _, n := range numbers {
		var id int
		err := db.QueryRow(context.Background(),
			"SELECT id FROM seats WHERE show_id = $1 AND seat_number = $2", showID, n).Scan(&id)
		require.NoError(t, err, "seat %s", n)
		ids = append(ids, id)
	}

	return ids
}

func countRows(t testing.TB, db *pgxpool.Pool, query string, args ...any) int {
	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
