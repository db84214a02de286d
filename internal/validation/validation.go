// Package validation checks raw request input before it reaches the
// parking service. Every validator is a pure predicate returning an ok
// flag and, on failure, a reason fit to show the caller.
package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"parking_tickets/internal/domain"
)

const (
	MinPlateLength = 2
	MaxPlateLength = 15
	MinParkingLot  = 1
	MaxParkingLot  = 9999
)

var (
	plateRegex    = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
	ticketIDRegex = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func ValidateLicensePlate(plate string) (bool, string) {
	if plate == "" {
		return false, "License plate is required and must be a string"
	}
	plate = strings.TrimSpace(plate)
	if len(plate) < MinPlateLength || len(plate) > MaxPlateLength {
		return false, "License plate must be between 2 and 15 characters"
	}
	if !plateRegex.MatchString(plate) {
		return false, "License plate contains invalid characters"
	}
	return true, ""
}

func ValidateParkingLot(raw string) (bool, string) {
	if raw == "" {
		return false, "Parking lot is required"
	}
	lot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		// Integers too wide for int are still integers, just out of range.
		if errors.Is(err, strconv.ErrRange) {
			return false, "Parking lot must be between 1 and 9999"
		}
		return false, "Parking lot must be a valid integer"
	}
	return ValidateParkingLotNumber(lot)
}

func ValidateParkingLotNumber(lot int) (bool, string) {
	if lot < MinParkingLot || lot > MaxParkingLot {
		return false, "Parking lot must be between 1 and 9999"
	}
	return true, ""
}

func ValidateTicketID(ticketID string) (bool, string) {
	if ticketID == "" {
		return false, "Ticket ID is required and must be a string"
	}
	if !ticketIDRegex.MatchString(strings.TrimSpace(ticketID)) {
		return false, "Invalid ticket ID format"
	}
	return true, ""
}

// ValidationError turns a validator's reason into a domain.ErrValidation.
func ValidationError(reason string) error {
	return domain.Validationf("%s", reason)
}

// ParseParkingLot validates raw and returns the lot number.
func ParseParkingLot(raw string) (int, error) {
	if ok, reason := ValidateParkingLot(raw); !ok {
		return 0, ValidationError(reason)
	}
	lot, _ := strconv.Atoi(strings.TrimSpace(raw))
	return lot, nil
}

// ExtractQueryParams copies params, treating a nil collection as empty.
func ExtractQueryParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// ExtractNullableQueryParams is ExtractQueryParams for sources that can
// carry null values; a nil value becomes the empty string.
func ExtractNullableQueryParams(params map[string]*string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = *v
	}
	return out
}
