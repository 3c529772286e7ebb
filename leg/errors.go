package leg

import "errors"

var (
	// ErrNoBasket is returned when the leg has no basket components.
	ErrNoBasket = errors.New("basket has no components")
	// ErrNoDates is returned when the leg has no date sequence.
	ErrNoDates = errors.New("leg has no dates")
	// ErrAmountSpec is returned when neither a positive notional nor a positive quotity is set.
	ErrAmountSpec = errors.New("one of notional or quotity must be set")
	// ErrZeroBasketValue is returned when quotity would be derived from a zero basket value.
	ErrZeroBasketValue = errors.New("zero basket value")
	// ErrNoReference is returned when the leg has no floating reference.
	ErrNoReference = errors.New("missing floating reference")
)

// ConfigError reports an invalid leg definition. It is never retriable.
type ConfigError struct {
	LegID string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "leg " + e.LegID + ": invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(id, field string, err error) *ConfigError {
	return &ConfigError{LegID: id, Field: field, Err: err}
}
