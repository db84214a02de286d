package service

import (
	"math"

	"parking_tickets/internal/domain"
)

const (
	DefaultHourlyRate              = 10.0
	DefaultBillingIncrementMinutes = 15
)

// BillingInfo is the read-only fee configuration.
type BillingInfo struct {
	HourlyRateUSD           float64 `json:"hourly_rate_usd"`
	BillingIncrementMinutes int     `json:"billing_increment_minutes"`
}

// FeeCalculator charges an hourly rate over durations rounded up to the
// billing increment.
type FeeCalculator struct {
	hourlyRate              float64
	billingIncrementMinutes int
}

func NewFeeCalculator(hourlyRate float64, billingIncrementMinutes int) (*FeeCalculator, error) {
	if hourlyRate <= 0 || math.IsNaN(hourlyRate) || math.IsInf(hourlyRate, 0) {
		return nil, domain.Validationf("hourly rate must be a positive number, got %v", hourlyRate)
	}
	if billingIncrementMinutes <= 0 {
		return nil, domain.Validationf("billing increment must be a positive number of minutes, got %d", billingIncrementMinutes)
	}
	return &FeeCalculator{
		hourlyRate:              hourlyRate,
		billingIncrementMinutes: billingIncrementMinutes,
	}, nil
}

func DefaultFeeCalculator() *FeeCalculator {
	return &FeeCalculator{
		hourlyRate:              DefaultHourlyRate,
		billingIncrementMinutes: DefaultBillingIncrementMinutes,
	}
}

// CalculateFee returns the charge in USD, rounded to cents. Non-positive
// durations are free.
func (f *FeeCalculator) CalculateFee(durationMinutes int) float64 {
	if durationMinutes <= 0 {
		return 0
	}
	inc := f.billingIncrementMinutes
	increments := durationMinutes / inc
	if durationMinutes%inc != 0 {
		increments++
	}
	// Multiply in float64: increments*inc can exceed math.MaxInt.
	billable := float64(increments) * float64(inc)
	fee := billable / 60 * f.hourlyRate
	return math.Round(fee*100) / 100
}

func (f *FeeCalculator) BillingInfo() BillingInfo {
	return BillingInfo{
		HourlyRateUSD:           f.hourlyRate,
		BillingIncrementMinutes: f.billingIncrementMinutes,
	}
}
