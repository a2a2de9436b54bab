package domain

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	GroundSeatsPerRow  = 26
	BalconySeatsPerRow = 22

	maxRecommendedSeats = 5
	recommendCenterSeat = 10
	recommendMaxOffset  = 12
)

var (
	// rows A and B are held back from sale at generation time
	prebookedRows = map[string]bool{"A": true, "B": true}
)

type Seat struct {
	ID         int
	ShowID     int
	SeatNumber string
	IsBooked   bool
	BookingID  *int
}

// Row returns the row label of the seat, e.g. "BA" for "BA12".
func (s Seat) Row() string {
	row, _ := SplitSeatNumber(s.SeatNumber)
	return row
}

func (s Seat) Number() int {
	_, n := SplitSeatNumber(s.SeatNumber)
	return n
}

func (s Seat) IsBalcony() bool {
	return IsBalconyRow(s.Row())
}

// SplitSeatNumber splits a seat number into its row label and 1-based index.
func SplitSeatNumber(seatNumber string) (string, int) {
	i := strings.IndexFunc(seatNumber, unicode.IsDigit)
	if i < 0 {
		return seatNumber, 0
	}

	n, err := strconv.Atoi(seatNumber[i:])
	if err != nil {
		return seatNumber[:i], 0
	}

	return seatNumber[:i], n
}

func IsBalconyRow(row string) bool {
	return len(row) == 2 && row[0] == 'B'
}

func GroundRows() []string {
	rows := make([]string, 0, 20)
	for c := 'A'; c <= 'T'; c++ {
		rows = append(rows, string(c))
	}

	return rows
}

func BalconyRows() []string {
	rows := make([]string, 0, 15)
	for c := 'A'; c <= 'O'; c++ {
		rows = append(rows, "B"+string(c))
	}

	return rows
}

// GenerateSeatLayout returns the full, unsaved seat set of a show in row order.
// Ground rows A..T hold 26 seats each, with rows A and B already booked. Balcony
// rows BA..BO hold 22 seats each and are only generated when includeBalcony is set.
func GenerateSeatLayout(includeBalcony bool) []Seat {
	ground := GroundRows()
	size := len(ground) * GroundSeatsPerRow
	if includeBalcony {
		size += len(BalconyRows()) * BalconySeatsPerRow
	}

	seats := make([]Seat, 0, size)

	for _, row := range ground {
		for i := 1; i <= GroundSeatsPerRow; i++ {
			seats = append(seats, Seat{
				SeatNumber: row + strconv.Itoa(i),
				IsBooked:   prebookedRows[row],
			})
		}
	}

	if includeBalcony {
		for _, row := range BalconyRows() {
			for i := 1; i <= BalconySeatsPerRow; i++ {
				seats = append(seats, Seat{SeatNumber: row + strconv.Itoa(i)})
			}
		}
	}

	return seats
}

type SeatRow struct {
	Label string
	Seats []Seat
}

// GroupSeatsByRow splits seats into ground and balcony rows, each in layout order
// with seats sorted by index.
func GroupSeatsByRow(seats []Seat) (ground []SeatRow, balcony []SeatRow) {
	byRow := make(map[string][]Seat)
	for _, s := range seats {
		byRow[s.Row()] = append(byRow[s.Row()], s)
	}

	collect := func(labels []string) []SeatRow {
		rows := make([]SeatRow, 0, len(labels))
		for _, label := range labels {
			rowSeats, ok := byRow[label]
			if !ok {
				continue
			}

			sort.Slice(rowSeats, func(i, j int) bool {
				return rowSeats[i].Number() < rowSeats[j].Number()
			})

			rows = append(rows, SeatRow{Label: label, Seats: rowSeats})
		}

		return rows
	}

	return collect(GroundRows()), collect(BalconyRows())
}

// RecommendSeats picks up to five free ground seats, scanning rows C..T and
// widening outwards from seat 10 one position at a time. No seat is returned twice.
func RecommendSeats(seats []Seat) []Seat {
	free := make(map[string]Seat)
	for _, s := range seats {
		if !s.IsBooked {
			free[s.SeatNumber] = s
		}
	}

	picked := make(map[string]bool)
	result := make([]Seat, 0, maxRecommendedSeats)

	for _, row := range GroundRows()[2:] {
		for offset := 0; offset <= recommendMaxOffset; offset++ {
			for _, n := range []int{recommendCenterSeat - offset, recommendCenterSeat + offset} {
				number := row + strconv.Itoa(n)

				seat, ok := free[number]
				if !ok || picked[number] {
					continue
				}

				picked[number] = true
				result = append(result, seat)

				if len(result) == maxRecommendedSeats {
					return result
				}
			}
		}
	}

	return result
}

type SeatRepository interface {
	GetByShow(ctx context.Context, showID int) ([]Seat, error)
	GetStats(ctx context.Context, showID int) (*SeatStats, error)
}
