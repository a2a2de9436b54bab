package ticketing

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	ticketsPerPage = 3
	blockHeight    = 85.0
	blockGap       = 8.0
	pageMargin     = 12.0
)

// TicketView is everything printed on one ticket block.
type TicketView struct {
	BookingCode string
	BuyerName   string
	SeatNumber  string
	ShowName    string
	ShowDate    time.Time
	ShowTime    string
	Price       decimal.Decimal
	Venue       string
	Poster      []byte
	QRCode      []byte
}

// RenderPDF lays out one block per ticket, three to an A4 page. Poster images
// that cannot be decoded are left out rather than failing the document.
func RenderPDF(tickets []TicketView) ([]byte, error) {
	if len(tickets) == 0 {
		return nil, fmt.Errorf("no tickets to render")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle("Raven Entertainment tickets", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	width := pageWidth - 2*pageMargin

	for i, t := range tickets {
		slot := i % ticketsPerPage
		if slot == 0 {
			pdf.AddPage()
		}

		y := pageMargin + float64(slot)*(blockHeight+blockGap)
		drawTicket(pdf, tr, i, t, pageMargin, y, width)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func drawTicket(pdf *fpdf.Fpdf, tr func(string) string, idx int, t TicketView, x, y, w float64) {
	pdf.SetDrawColor(40, 40, 40)
	pdf.SetLineWidth(0.4)
	pdf.RoundedRect(x, y, w, blockHeight, 3, "1234", "D")

	textX := x + 6

	if poster, ok := normalizeImage(t.Poster); ok {
		name := fmt.Sprintf("poster-%d", idx)
		opts := fpdf.ImageOptions{ImageType: "JPG"}

		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(poster))
		pdf.ImageOptions(name, x+5, y+5, 45, blockHeight-10, false, opts, 0, "")

		textX = x + 56
	}

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.Text(textX, y+14, tr(t.ShowName))

	pdf.SetFont("Helvetica", "", 10)

	lines := []string{
		"Name: " + t.BuyerName,
		"Seat: " + t.SeatNumber,
		fmt.Sprintf("Date: %s  Time: %s", t.ShowDate.Format("02 Jan 2006"), t.ShowTime),
		"Price: INR " + t.Price.StringFixed(2),
		"Booking: " + t.BookingCode,
	}

	for i, line := range lines {
		pdf.Text(textX, y+26+float64(i)*8, tr(line))
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.Text(textX, y+blockHeight-6, tr(t.Venue))

	if len(t.QRCode) > 0 {
		name := fmt.Sprintf("qr-%d", idx)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		size := 50.0

		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(t.QRCode))
		pdf.ImageOptions(name, x+w-size-5, y+(blockHeight-size)/2, size, size, false, opts, 0, "")
	}
}

// normalizeImage re-encodes any decodable image as JPEG so the PDF writer only
// ever sees a format it supports.
func normalizeImage(data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}

	return buf.Bytes(), true
}
