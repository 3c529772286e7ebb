package product

import (
	"errors"

	"github.com/meenmo/trsreset/leg"
)

var (
	// ErrNotTenorAdjustable is returned when the leg's reference cannot change its lookback tenor.
	ErrNotTenorAdjustable = errors.New("floating reference does not support tenor adjustment")
	// ErrBasketMismatch is returned when the model prices a different number of components than the basket holds.
	ErrBasketMismatch = errors.New("stock values do not match basket components")
	// ErrOutOfOrder is returned when an event is dated before the last fixing.
	ErrOutOfOrder = errors.New("event dated before last fixing")
	// ErrNoResetSchedule is returned when a reset is evaluated on a leg without a reset schedule.
	ErrNoResetSchedule = errors.New("leg has no reset schedule")
	// ErrZeroBasketValue is returned when quotity would be derived from a zero basket value.
	ErrZeroBasketValue = leg.ErrZeroBasketValue
)
