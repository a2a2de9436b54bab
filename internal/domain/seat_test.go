package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSeatLayout(t *testing.T) {
	tests := []struct {
		name           string
		includeBalcony bool
		wantTotal      int
		wantBooked     int
		wantBalcony    int
	}{
		{
			name:           "ground floor only",
			includeBalcony: false,
			wantTotal:      520,
			wantBooked:     52,
			wantBalcony:    0,
		},
		{
			name:           "with balcony",
			includeBalcony: true,
			wantTotal:      850,
			wantBooked:     52,
			wantBalcony:    330,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seats := GenerateSeatLayout(tt.includeBalcony)

			assert.Len(t, seats, tt.wantTotal)

			booked, balcony := 0, 0
			seen := make(map[string]bool)

			for _, s := range seats {
				require.False(t, seen[s.SeatNumber], "duplicate seat %s", s.SeatNumber)
				seen[s.SeatNumber] = true

				if s.IsBooked {
					booked++
					assert.Contains(t, []string{"A", "B"}, s.Row())
				}
				if s.IsBalcony() {
					balcony++
					assert.False(t, s.IsBooked, "balcony seat %s must be free", s.SeatNumber)
				}
			}

			assert.Equal(t, tt.wantBooked, booked)
			assert.Equal(t, tt.wantBalcony, balcony)
		})
	}
}

func TestGenerateSeatLayout_Boundaries(t *testing.T) {
	seats := GenerateSeatLayout(true)

	numbers := make(map[string]bool, len(seats))
	for _, s := range seats {
		numbers[s.SeatNumber] = true
	}

	for _, n := range []string{"A1", "A26", "T1", "T26", "BA1", "BA22", "BO22"} {
		assert.True(t, numbers[n], "expected seat %s", n)
	}

	for _, n := range []string{"A27", "U1", "BA23", "BP1", "B0"} {
		assert.False(t, numbers[n], "unexpected seat %s", n)
	}

	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, "BO22", seats[len(seats)-1].SeatNumber)
}

func TestSplitSeatNumber(t *testing.T) {
	tests := []struct {
		in      string
		wantRow string
		wantNum int
	}{
		{"A1", "A", 1},
		{"T26", "T", 26},
		{"BA12", "BA", 12},
		{"B7", "B", 7},
		{"X", "X", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			row, num := SplitSeatNumber(tt.in)
			assert.Equal(t, tt.wantRow, row)
			assert.Equal(t, tt.wantNum, num)
		})
	}

	assert.False(t, IsBalconyRow("B"))
	assert.True(t, IsBalconyRow("BA"))
}

func TestGroupSeatsByRow(t *testing.T) {
	seats := []Seat{
		{ID: 3, SeatNumber: "A10"},
		{ID: 1, SeatNumber: "A2"},
		{ID: 4, SeatNumber: "BA1"},
		{ID: 2, SeatNumber: "C1"},
	}

	ground, balcony := GroupSeatsByRow(seats)

	require.Len(t, ground, 2)
	assert.Equal(t, "A", ground[0].Label)
	assert.Equal(t, []string{"A2", "A10"}, []string{ground[0].Seats[0].SeatNumber, ground[0].Seats[1].SeatNumber})
	assert.Equal(t, "C", ground[1].Label)

	require.Len(t, balcony, 1)
	assert.Equal(t, "BA", balcony[0].Label)
}

func TestRecommendSeats(t *testing.T) {
	t.Run("fresh layout centres on seat ten of row C", func(t *testing.T) {
		got := RecommendSeats(GenerateSeatLayout(false))

		var numbers []string
		for _, s := range got {
			numbers = append(numbers, s.SeatNumber)
		}

		assert.Equal(t, []string{"C10", "C9", "C11", "C8", "C12"}, numbers)
	})

	t.Run("skips booked seats and moves to later rows", func(t *testing.T) {
		seats := GenerateSeatLayout(false)
		for i := range seats {
			if seats[i].Row() == "C" {
				seats[i].IsBooked = true
			}
			if seats[i].SeatNumber == "D10" {
				seats[i].IsBooked = true
			}
		}

		got := RecommendSeats(seats)

		require.Len(t, got, 5)
		assert.Equal(t, "D9", got[0].SeatNumber)
		for _, s := range got {
			assert.False(t, s.IsBooked)
		}
	})

	t.Run("never returns duplicates", func(t *testing.T) {
		seats := []Seat{{SeatNumber: "C10"}, {SeatNumber: "C11"}}

		got := RecommendSeats(seats)

		assert.Len(t, got, 2)
	})

	t.Run("full house yields nothing", func(t *testing.T) {
		seats := GenerateSeatLayout(false)
		for i := range seats {
			seats[i].IsBooked = true
		}

		assert.Empty(t, RecommendSeats(seats))
	})
}
