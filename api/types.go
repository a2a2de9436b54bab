// Package api holds the request and response bodies of the HTTP API.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

// Auth

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,otp"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type AlreadyLoggedInResponse struct {
	Message string `json:"message"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompletePasswordResetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,otp"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// Users

type UserResponse struct {
	Id            int       `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	PhoneNumber   *string   `json:"phoneNumber,omitempty"`
	Address       *string   `json:"address,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int       `json:"version"`
}

type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=15"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=72"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Metadata Metadata       `json:"metadata"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// Shows

type ShowResponse struct {
	Id             int                `json:"id"`
	Name           string             `json:"name"`
	Slug           string             `json:"slug"`
	Description    string             `json:"description"`
	Date           openapi_types.Date `json:"date"`
	Time           string             `json:"time"`
	SeatPrice      decimal.Decimal    `json:"seatPrice"`
	IncludeBalcony bool               `json:"includeBalcony"`
	PosterUrl      *string            `json:"posterUrl,omitempty"`
	ThumbnailUrl   *string            `json:"thumbnailUrl,omitempty"`
	QrCodeUrl      *string            `json:"qrCodeUrl,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	Version        int                `json:"version"`
}

type SeatStats struct {
	Total     int `json:"total"`
	Booked    int `json:"booked"`
	Remaining int `json:"remaining"`
}

type ShowListItem struct {
	ShowResponse
	SeatStats SeatStats `json:"seatStats"`
}

type ShowListResponse struct {
	Shows    []ShowListItem `json:"shows"`
	Metadata Metadata       `json:"metadata"`
}

type MediaResponse struct {
	Id          int       `json:"id"`
	Url         string    `json:"url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ShowDetailResponse struct {
	ShowResponse
	SeatStats SeatStats       `json:"seatStats"`
	Media     []MediaResponse `json:"media"`
}

type CreateShowRequest struct {
	Name           string             `json:"name" validate:"required,max=100"`
	Description    string             `json:"description" validate:"max=5000"`
	Date           openapi_types.Date `json:"date" validate:"required"`
	Time           string             `json:"time" validate:"required,clock"`
	SeatPrice      decimal.Decimal    `json:"seatPrice" validate:"money"`
	IncludeBalcony *bool              `json:"includeBalcony"`
}

// UpdateShowRequest cannot change the balcony flag, seats are fixed at creation.
type UpdateShowRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=5000"`
	Date        *openapi_types.Date `json:"date"`
	Time        *string             `json:"time" validate:"omitempty,clock"`
	SeatPrice   *decimal.Decimal    `json:"seatPrice" validate:"omitempty,money"`
}

// Seats

type SeatResponse struct {
	Id         int    `json:"id"`
	SeatNumber string `json:"seatNumber"`
	IsBooked   bool   `json:"isBooked"`
}

type SeatRowResponse struct {
	Row   string         `json:"row"`
	Seats []SeatResponse `json:"seats"`
}

type SeatMapResponse struct {
	ShowId      int               `json:"showId"`
	Ground      []SeatRowResponse `json:"ground"`
	Balcony     []SeatRowResponse `json:"balcony"`
	Recommended []SeatResponse    `json:"recommended"`
	SeatStats   SeatStats         `json:"seatStats"`
}

// Bookings

type CreateBookingRequest struct {
	SeatIds []int `json:"seatIds" validate:"required,min=1,max=50,unique,dive,gt=0"`
}

type AdminCreateBookingRequest struct {
	BuyerName  string `json:"buyerName" validate:"required,max=100"`
	BuyerEmail string `json:"buyerEmail" validate:"required,email,max=254"`
	SeatIds    []int  `json:"seatIds" validate:"required,min=1,max=50,unique,dive,gt=0"`
}

type KeepSeatsRequest struct {
	SeatIds []int `json:"seatIds" validate:"required,min=1,unique,dive,gt=0"`
}

type BookingResponse struct {
	Id              int                `json:"id"`
	BookingCode     string             `json:"bookingCode"`
	ShowId          int                `json:"showId"`
	ShowName        string             `json:"showName"`
	ShowDate        openapi_types.Date `json:"showDate"`
	NumberOfTickets int                `json:"numberOfTickets"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	PaymentStatus   string             `json:"paymentStatus"`
	TransactionId   *string            `json:"transactionId,omitempty"`
	UpiId           *string            `json:"upiId,omitempty"`
	BuyerName       *string            `json:"buyerName,omitempty"`
	BuyerEmail      *string            `json:"buyerEmail,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type TicketResponse struct {
	Id         int        `json:"id"`
	SeatNumber string     `json:"seatNumber"`
	IsScanned  bool       `json:"isScanned"`
	ScannedAt  *time.Time `json:"scannedAt,omitempty"`
	QrCodeUrl  *string    `json:"qrCodeUrl,omitempty"`
}

type CreateBookingResponse struct {
	Booking          BookingResponse  `json:"booking"`
	Tickets          []TicketResponse `json:"tickets"`
	TicketsDelivered bool             `json:"ticketsDelivered"`
}

type AdminCreateBookingResponse struct {
	Booking       BookingResponse  `json:"booking"`
	Tickets       []TicketResponse `json:"tickets"`
	DeliveryJobId string           `json:"deliveryJobId"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Metadata Metadata          `json:"metadata"`
}

type BookingSummaryResponse struct {
	ShowId       int                `json:"showId"`
	ShowName     string             `json:"showName"`
	ShowDate     openapi_types.Date `json:"showDate"`
	TotalTickets int                `json:"totalTickets"`
	TotalPrice   decimal.Decimal    `json:"totalPrice"`
}

type KeepSeatsResponse struct {
	Booking       BookingResponse `json:"booking"`
	ReleasedSeats []SeatResponse  `json:"releasedSeats"`
}

type DeliveryJobResponse struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Error     *string   `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payments

type PaymentIntentRequest struct {
	UpiId string `json:"upiId" validate:"required,max=100,upi"`
}

type PaymentIntentResponse struct {
	RedirectUrl string `json:"redirectUrl"`
}

type PaymentStatusRequest struct {
	Status        string  `json:"status" validate:"required,oneof=Paid"`
	TransactionId *string `json:"transactionId" validate:"omitempty,min=1,max=100"`
}

// Scans

type DoorScanRequest struct {
	Ticket string `json:"ticket" validate:"required,max=500"`
}

type ScannedTicket struct {
	Id          int        `json:"id"`
	BookingId   int        `json:"bookingId"`
	BookingCode string     `json:"bookingCode"`
	ShowId      int        `json:"showId"`
	SeatNumber  string     `json:"seatNumber"`
	ScannedAt   *time.Time `json:"scannedAt,omitempty"`
}

type ScanResponse struct {
	Valid          bool          `json:"valid"`
	AlreadyScanned bool          `json:"alreadyScanned"`
	Ticket         ScannedTicket `json:"ticket"`
}

// Analytics

type DistrictCount struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

type IdentifierCount struct {
	Identifier string `json:"identifier"`
	Count      int    `json:"count"`
}

type TicketAttendance struct {
	ShowId               int     `json:"showId"`
	ShowName             string  `json:"showName"`
	TotalBooked          int     `json:"totalBooked"`
	TotalScanned         int     `json:"totalScanned"`
	AttendancePercentage float64 `json:"attendancePercentage"`
}

type DashboardResponse struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	RevenueToday  decimal.Decimal `json:"revenueToday"`
	RevenueMonth  decimal.Decimal `json:"revenueMonth"`
	TotalBookings int             `json:"totalBookings"`
	Shows         []ShowListItem  `json:"shows"`
}
