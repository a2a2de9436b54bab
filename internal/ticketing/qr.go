package ticketing

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// GenerateQR encodes content as a PNG QR code.
func GenerateQR(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, qrSize)
}

func TicketURL(baseURL string, ticketID int) string {
	return fmt.Sprintf("%s/qr/%d", strings.TrimRight(baseURL, "/"), ticketID)
}

func ShowURL(baseURL string, showID int) string {
	return fmt.Sprintf("%s/qr/shows/%d", strings.TrimRight(baseURL, "/"), showID)
}

func TicketQRPath(ticketID int) string {
	return fmt.Sprintf("tickets/qrcodes/ticket_%d.png", ticketID)
}

func ShowQRPath(slug string) string {
	return fmt.Sprintf("qrcodes/%s_qr.png", slug)
}

// BookingPDFPath is where the combined ticket PDF of a booking is cached.
func BookingPDFPath(userID, bookingID int) string {
	return fmt.Sprintf("tickets/%d_%d_all.pdf", userID, bookingID)
}
