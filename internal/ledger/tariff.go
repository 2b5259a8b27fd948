package ledger

import (
	"math"
	"time"
)

// Tariff prices app-initiated visits pro rata: whole minutes (rounded
// half-up) at RatePerHour, currency-rounded to 2 decimals. The charge is a
// pure function of the two timestamps, so it can be recomputed at any time
// and is zero exactly when the rounded duration is zero.
type Tariff struct {
	RatePerHour float64
}

// Charge returns the rounded duration in minutes and the amount due.
func (t Tariff) Charge(entry, exit time.Time) (int, float64) {
	minutes := durationMinutes(entry, exit)
	charge := round2(float64(minutes) / 60 * t.RatePerHour)
	return minutes, charge
}

// GateTariff prices camera-gate visits: a free grace period, then whole
// started hours at RatePerHour, capped at DailyCap.
type GateTariff struct {
	GraceMinutes int
	RatePerHour  float64
	DailyCap     float64
}

// Charge returns the rounded duration in minutes and the amount due.
func (t GateTariff) Charge(entry, exit time.Time) (int, float64) {
	minutes := durationMinutes(entry, exit)
	if minutes <= t.GraceMinutes {
		return minutes, 0
	}
	hours := minutes / 60
	if minutes%60 > 0 {
		hours++
	}
	fee := float64(hours) * t.RatePerHour
	if fee > t.DailyCap {
		fee = t.DailyCap
	}
	return minutes, round2(fee)
}

// durationMinutes rounds to the nearest whole minute, half up: 89m30s is 90
// minutes. Negative spans clamp to zero.
func durationMinutes(entry, exit time.Time) int {
	minutes := int(math.Round(exit.Sub(entry).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
