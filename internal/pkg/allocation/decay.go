// Package allocation holds the pure periodic-limits math: exponential decay
// carryover, period boundaries and the QoS level state machine. Nothing here
// performs I/O; every function takes all state as explicit arguments.
package allocation

import (
	"math"

	"spard/internal/pkg/model"
)

// DecayFactor returns 2^(-elapsedDays/halfLifeDays), in (0, 1] for any
// positive half-life and non-negative elapsed days. Zero elapsed days gives
// exactly 1; elapsed equal to the half-life gives exactly 0.5.
func DecayFactor(elapsedDays, halfLifeDays float64) float64 {
	return math.Exp2(-elapsedDays / halfLifeDays)
}

// Carryover computes how much of the previous period's unused allocation is
// added to the upcoming period. Overuse floors the carryover at zero; the new
// total is never below the base allocation. Operating policy is expressed
// solely through halfLifeDays.
func Carryover(baseAllocation, previousUsage, elapsedDays, halfLifeDays float64) model.CarryoverDetail {
	factor := DecayFactor(elapsedDays, halfLifeDays)
	effective := previousUsage * factor
	unused := baseAllocation - effective
	if unused < 0 {
		unused = 0
	}
	return model.CarryoverDetail{
		PreviousUsage:      previousUsage,
		DecayFactor:        factor,
		EffectiveUsage:     effective,
		UnusedAllocation:   unused,
		NewTotalAllocation: baseAllocation + unused,
	}
}

// Fairshare derives the fairshare weight from a total allocation, floored
// at 1 so an account never vanishes from the fair tree.
func Fairshare(totalAllocation float64) int64 {
	fs := int64(math.Floor(totalAllocation / 3))
	if fs < 1 {
		return 1
	}
	return fs
}
