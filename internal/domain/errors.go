package domain

import "errors"

var (
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrRecordNotFound        = errors.New("record not found")
	ErrEditConflict          = errors.New("edit conflict")
	ErrDuplicateSlug         = errors.New("a show with this slug already exists")
	ErrSeatAlreadyBooked     = errors.New("one or more selected seats are already booked")
	ErrInvalidSeatSelection  = errors.New("one or more selected seats do not belong to this show")
	ErrEmptySeatSelection    = errors.New("at least one seat must be selected")
	ErrSeatNotInBooking      = errors.New("a selected seat does not belong to this booking")
	ErrPaymentAlreadySettled = errors.New("booking has already been paid")
)
