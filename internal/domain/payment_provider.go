package domain

// PaymentProvider builds the link a buyer follows to pay for a booking in
// their payment app.
type PaymentProvider interface {
	PaymentURL(booking *Booking) string
}
