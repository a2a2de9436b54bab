package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ravenent/show-booking-system/api"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/ravenent/show-booking-system/internal/mocks"
	"github.com/stretchr/testify/suite"
)

type SeatsTestSuite struct {
	suite.Suite
	app      *Application
	showRepo *mocks.MockShowRepo
	seatRepo *mocks.MockSeatRepo
}

func (s *SeatsTestSuite) SetupTest() {
	s.showRepo = &mocks.MockShowRepo{
		GetByIdFunc: func(ctx context.Context, id int) (*domain.Show, error) {
			if id != 1 {
				return nil, domain.ErrRecordNotFound
			}
			return &domain.Show{ID: 1, Name: "Raven Live", Date: testNow}, nil
		},
	}
	s.seatRepo = &mocks.MockSeatRepo{}

	s.app = newTestApplication(func(a *Application) {
		a.showRepo = s.showRepo
		a.seatRepo = s.seatRepo
	})
}

func TestSeatsSuite(t *testing.T) {
	suite.Run(t, new(SeatsTestSuite))
}

func (s *SeatsTestSuite) TestGetSeatMap() {
	seats := []domain.Seat{
		{ID: 3, SeatNumber: "C10", IsBooked: false},
		{ID: 1, SeatNumber: "A2", IsBooked: true},
		{ID: 2, SeatNumber: "A1", IsBooked: true},
		{ID: 4, SeatNumber: "C9", IsBooked: true},
		{ID: 5, SeatNumber: "BA1", IsBooked: false},
	}

	tests := []struct {
		name           string
		showID         int
		getByShowFunc  func(context.Context, int) ([]domain.Seat, error)
		wantStatus     int
		wantResponse   *api.SeatMapResponse
		wantErrMessage string
	}{
		{
			name:           "should fail when show is not found",
			showID:         999,
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrNotFound,
		},
		{
			name:   "should fail when database error occurs while fetching seats",
			showID: 1,
			getByShowFunc: func(ctx context.Context, showID int) ([]domain.Seat, error) {
				return nil, fmt.Errorf("database error")
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name:   "should return seat map split by floor",
			showID: 1,
			getByShowFunc: func(ctx context.Context, showID int) ([]domain.Seat, error) {
				return seats, nil
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.SeatMapResponse{
				ShowId: 1,
				Ground: []api.SeatRowResponse{
					{
						Row: "A",
						Seats: []api.SeatResponse{
							{Id: 2, SeatNumber: "A1", IsBooked: true},
							{Id: 1, SeatNumber: "A2", IsBooked: true},
						},
					},
					{
						Row: "C",
						Seats: []api.SeatResponse{
							{Id: 4, SeatNumber: "C9", IsBooked: true},
							{Id: 3, SeatNumber: "C10", IsBooked: false},
						},
					},
				},
				Balcony: []api.SeatRowResponse{
					{
						Row:   "BA",
						Seats: []api.SeatResponse{{Id: 5, SeatNumber: "BA1", IsBooked: false}},
					},
				},
				Recommended: []api.SeatResponse{{Id: 3, SeatNumber: "C10", IsBooked: false}},
				SeatStats:   api.SeatStats{Total: 5, Booked: 3, Remaining: 2},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.seatRepo.GetByShowFunc = tt.getByShowFunc
			s.seatRepo.GetStatsFunc = func(ctx context.Context, showID int) (*domain.SeatStats, error) {
				return &domain.SeatStats{Total: 5, Booked: 3, Remaining: 2}, nil
			}

			w, r := executeRequest(s.T(), http.MethodGet, fmt.Sprintf("/shows/%d/seats", tt.showID), nil)

			s.app.GetSeatMap(w, r, tt.showID)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantResponse != nil {
				var got api.SeatMapResponse
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&got))

				if diff := cmp.Diff(*tt.wantResponse, got); diff != "" {
					s.T().Errorf("GetSeatMap() mismatch (-want +got):\n%s", diff)
				}
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}
