package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ravenent/show-booking-system/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	ErrRequired        = "is required"
	ErrInvalidEmail    = "must be a valid email address"
	ErrDefaultInvalid  = "is invalid"
	ErrInvalidPassword = "must be at least 8 characters long and include at least one uppercase letter, one lowercase letter, " +
		"one number, and one special character (!@#$%^&*)."
	ErrInvalidOTP        = "must be a 6 digit code"
	ErrInvalidUPI        = "must be a valid UPI id such as name@bank"
	ErrInvalidClock      = "must be a time in HH:MM format"
	ErrInvalidMoney      = "must be an amount between 0 and 999999.99 with at most 2 decimal places"
	ErrInvalidSlug       = "must contain only lowercase letters, digits and hyphens"
	ErrInvalidUsername   = "must contain only letters, digits, dots, hyphens and underscores"
	ErrInvalidRole       = "must be one of Admin, User"
	ErrInvalidStatus     = "must be one of Pending, Initiated, Confirmed, Paid"
	ErrUniqueItems       = "must not contain duplicates"
	ErrMinItems          = "must contain at least %s item(s)"
	ErrMinValue          = "must be at least %s"
	ErrMaxValue          = "must be at most %s"
	ErrMinLength         = "must be at least %s characters long"
	ErrMaxLength         = "must be at most %s characters long"
	ErrInvalidPageNumber = "must be a positive number"
)

var (
	hasSpecialRgx = regexp.MustCompile(`[!@#$%^&*]`)
	otpRgx        = regexp.MustCompile(`^\d{6}$`)
	upiRgx        = regexp.MustCompile(`^[\w.\-]{2,256}@[a-zA-Z]{2,64}$`)
	clockRgx      = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	slugRgx       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	usernameRgx   = regexp.MustCompile(`^[\w.\-]+$`)

	// largest price a seat_price NUMERIC(8, 2) column holds
	maxMoney = decimal.RequireFromString("999999.99")
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterTagNameFunc(jsonFieldName)
	validator.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	validator.RegisterValidation("password", validatePassword)
	validator.RegisterValidation("otp", matches(otpRgx))
	validator.RegisterValidation("upi", matches(upiRgx))
	validator.RegisterValidation("clock", matches(clockRgx))
	validator.RegisterValidation("slug", matches(slugRgx))
	validator.RegisterValidation("username", matches(usernameRgx))
	validator.RegisterValidation("money", validateMoney)
	validator.RegisterValidation("role", validateRole)
	validator.RegisterValidation("payment_status", validatePaymentStatus)

	return validator
}

// jsonFieldName reports fields by their JSON name so errors match the request body.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func matches(rgx *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return rgx.MatchString(fl.Field().String())
	}
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 || len(password) > 72 {
		return false
	}

	containsUpper, containsLower, containsDigit, containsSpecial := false, false, false, false

	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			containsUpper = true
		case unicode.IsLower(ch):
			containsLower = true
		case unicode.IsDigit(ch):
			containsDigit = true
		case hasSpecialRgx.MatchString(string(ch)):
			containsSpecial = true
		}
	}

	return containsUpper && containsLower && containsDigit && containsSpecial
}

// decimalValue lets tags on decimal fields see the amount as a string.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateMoney(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	if amount.IsNegative() || amount.GreaterThan(maxMoney) {
		return false
	}

	return amount.Equal(amount.Round(2))
}

func validateRole(fl validator.FieldLevel) bool {
	role := domain.Role(fl.Field().String())

	return role == domain.RoleAdmin || role == domain.RoleUser
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	switch domain.PaymentStatus(fl.Field().String()) {
	case domain.PaymentPending, domain.PaymentInitiated, domain.PaymentConfirmed, domain.PaymentPaid:
		return true
	default:
		return false
	}
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return ErrRequired
	case "email":
		return ErrInvalidEmail
	case "min":
		if isNumeric(err) {
			return fmt.Sprintf(ErrMinValue, err.Param())
		}
		if isCollection(err) {
			return fmt.Sprintf(ErrMinItems, err.Param())
		}
		return fmt.Sprintf(ErrMinLength, err.Param())
	case "max":
		if isNumeric(err) {
			return fmt.Sprintf(ErrMaxValue, err.Param())
		}
		return fmt.Sprintf(ErrMaxLength, err.Param())
	case "gt", "gte":
		return fmt.Sprintf(ErrMinValue, err.Param())
	case "unique":
		return ErrUniqueItems
	case "password":
		return ErrInvalidPassword
	case "otp":
		return ErrInvalidOTP
	case "upi":
		return ErrInvalidUPI
	case "clock":
		return ErrInvalidClock
	case "money":
		return ErrInvalidMoney
	case "slug":
		return ErrInvalidSlug
	case "username":
		return ErrInvalidUsername
	case "role":
		return ErrInvalidRole
	case "payment_status":
		return ErrInvalidStatus
	default:
		return ErrDefaultInvalid
	}
}

func isNumeric(err validator.FieldError) bool {
	switch err.Kind().String() {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64":
		return true
	}
	return false
}

func isCollection(err validator.FieldError) bool {
	switch err.Kind().String() {
	case "slice", "array", "map":
		return true
	}
	return false
}
