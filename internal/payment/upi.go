package payment

import (
	"net/url"

	"github.com/ravenent/show-booking-system/internal/domain"
)

const currencyINR = "INR"

// UPIPaymentProvider builds upi://pay intent links. There is no gateway behind
// it, the buyer reports the outcome once their UPI app returns.
type UPIPaymentProvider struct {
	payeeAddress string
	payeeName    string
}

func NewUPIPaymentProvider(payeeAddress, payeeName string) *UPIPaymentProvider {
	return &UPIPaymentProvider{
		payeeAddress: payeeAddress,
		payeeName:    payeeName,
	}
}

// PaymentURL returns the deep link for the booking total, referenced by the
// booking code.
func (u *UPIPaymentProvider) PaymentURL(booking *domain.Booking) string {
	params := url.Values{}
	params.Set("pa", u.payeeAddress)
	params.Set("pn", u.payeeName)
	params.Set("am", booking.TotalPrice.StringFixed(2))
	params.Set("cu", currencyINR)
	params.Set("tr", domain.BookingCode(booking.ID))

	link := url.URL{
		Scheme:   "upi",
		Host:     "pay",
		RawQuery: params.Encode(),
	}

	return link.String()
}
