package services

import (
	"regexp"
	"strings"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/utils"

	"github.com/go-playground/validator/v10"
)

// MaxAmount is the largest value a DECIMAL(12,2) money column holds.
const MaxAmount = 9999999999.99

var (
	validate      = validator.New()
	serviceTimeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

func IsValidEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

// IsValidPhone accepts numbers with at least 10 digits once separators are removed.
func IsValidPhone(s string) bool {
	d := utils.StripPhone(strings.TrimSpace(s))
	return len(d) >= 10 && utils.DigitsOnly(d) == d
}

func normalizeType(b *models.Booking) error {
	raw := strings.TrimSpace(b.BookingType)
	if raw == "" {
		return domain.Invalid("booking_type", "Missing required field: booking_type")
	}
	bt, ok := models.ParseBookingType(raw)
	if !ok {
		return domain.Invalid("booking_type", "Invalid booking type: %s", raw)
	}
	b.BookingType = string(bt)
	return nil
}

func validateSchedule(b models.Booking) error {
	if b.ServiceDate != "" {
		if _, err := utils.ParseDate(b.ServiceDate); err != nil {
			return domain.Invalid("service_date", "Service date must be in YYYY-MM-DD format")
		}
	}
	if b.ServiceTime != "" && !serviceTimeRe.MatchString(b.ServiceTime) {
		return domain.Invalid("service_time", "Service time must be in HH:MM format")
	}
	return nil
}

// ValidateSingle checks a single booking and canonicalizes its type.
func ValidateSingle(b *models.Booking) error {
	if strings.TrimSpace(b.Name) == "" {
		return domain.Invalid("name", "Missing required field: name")
	}
	if strings.TrimSpace(b.Phone) == "" {
		return domain.Invalid("phone", "Missing required field: phone")
	}
	if err := normalizeType(b); err != nil {
		return err
	}
	if b.BaseAmount <= 0 {
		return domain.Invalid("base_amount", "Base amount must be greater than 0")
	}
	if b.BaseAmount > MaxAmount {
		return domain.Invalid("base_amount", "Base amount must not exceed %s", utils.FormatMoney(MaxAmount))
	}
	if b.Email != "" && !IsValidEmail(b.Email) {
		return domain.Invalid("email", "Please enter a valid email address")
	}
	if !IsValidPhone(b.Phone) {
		return domain.Invalid("phone", "Please enter a valid phone number (minimum 10 digits)")
	}
	return validateSchedule(*b)
}

// ValidateGroup checks a group booking and each of its customers.
func ValidateGroup(b *models.Booking) error {
	if err := normalizeType(b); err != nil {
		return err
	}
	if len(b.Customers) == 0 {
		return domain.Invalid("customers", "Group booking must have at least one customer")
	}
	for i, c := range b.Customers {
		n := i + 1
		if strings.TrimSpace(c.Name) == "" {
			return domain.Invalid("customers", "Customer %d name is required", n)
		}
		if c.Amount <= 0 {
			return domain.Invalid("customers", "Customer %d amount must be greater than 0", n)
		}
		if c.Amount > MaxAmount {
			return domain.Invalid("customers", "Customer %d amount must not exceed %s", n, utils.FormatMoney(MaxAmount))
		}
		if c.Email != "" && !IsValidEmail(c.Email) {
			return domain.Invalid("customers", "Customer %d has an invalid email address", n)
		}
		if c.Phone != "" && !IsValidPhone(c.Phone) {
			return domain.Invalid("customers", "Customer %d has an invalid phone number (minimum 10 digits)", n)
		}
	}
	return validateSchedule(*b)
}

// checkAmountCeiling rejects derived sums and totals the money columns cannot store.
func checkAmountCeiling(b *models.Booking) error {
	if b.BaseAmount > MaxAmount {
		return domain.Invalid("base_amount", "Total of customer amounts must not exceed %s", utils.FormatMoney(MaxAmount))
	}
	if b.Total > MaxAmount {
		return domain.Invalid("total", "Total amount including GST must not exceed %s", utils.FormatMoney(MaxAmount))
	}
	return nil
}
