package domain

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type ImageKind string

const (
	PosterImage    ImageKind = "poster"
	ThumbnailImage ImageKind = "thumbnail"
)

type Show struct {
	ID             int
	Name           string
	Slug           string
	Description    string
	Date           time.Time
	Time           pgtype.Time
	SeatPrice      decimal.Decimal
	IncludeBalcony bool
	PosterPath     *string
	ThumbnailPath  *string
	QRCodePath     *string
	CreatedAt      time.Time
	Version        int
}

// StartsAt combines the show date and time in the location of the date.
func (s *Show) StartsAt() time.Time {
	d := time.Duration(s.Time.Microseconds) * time.Microsecond
	y, m, day := s.Date.Date()

	return time.Date(y, m, day, 0, 0, 0, 0, s.Date.Location()).Add(d)
}

// IsPast reports whether the show date is before the calendar day of now.
func (s *Show) IsPast(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	sy, sm, sd := s.Date.Date()
	showDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)

	return showDay.Before(today)
}

type SeatStats struct {
	Total     int
	Booked    int
	Remaining int
}

type ShowWithStats struct {
	Show
	Stats SeatStats
}

type ShowDetail struct {
	Show
	Stats SeatStats
	Media []MediaFile
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpacing  = regexp.MustCompile(`[\s-]+`)
)

// Slugify lower-cases name and joins its words with hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSpacing.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if s == "" {
		return "show"
	}

	return s
}

// NextSlug returns base if unused, otherwise base-N with the smallest free N >= 1.
func NextSlug(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}

	if !used[base] {
		return base
	}

	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(s string) (pgtype.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return pgtype.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}

	us := int64(t.Hour()*3600+t.Minute()*60) * int64(time.Second/time.Microsecond)

	return pgtype.Time{Microseconds: us, Valid: true}, nil
}

func FormatClock(t pgtype.Time) string {
	if !t.Valid {
		return ""
	}

	minutes := t.Microseconds / int64(time.Minute/time.Microsecond)

	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type ShowRepository interface {
	CreateWithSeats(ctx context.Context, show *Show, layout func(*Show) []Seat) error
	GetById(ctx context.Context, id int) (*Show, error)
	GetBySlug(ctx context.Context, slug string) (*ShowDetail, error)
	GetUpcoming(ctx context.Context, from time.Time, pagination Pagination) ([]ShowWithStats, *Metadata, error)
	GetAllWithStats(ctx context.Context) ([]ShowWithStats, error)
	Update(ctx context.Context, show *Show) error
	Delete(ctx context.Context, id int) error
	SetImage(ctx context.Context, id int, kind ImageKind, path string) error
	SetQRCode(ctx context.Context, id int, path string) error
}
