package market

// ReferenceIndex enumerates supported floating benchmarks.
type ReferenceIndex string

const (
	ESTR      ReferenceIndex = "ESTR"
	EURIBOR3M ReferenceIndex = "EURIBOR3M"
	EURIBOR6M ReferenceIndex = "EURIBOR6M"
	TONAR     ReferenceIndex = "TONAR"
	SOFR      ReferenceIndex = "SOFR"
	SONIA     ReferenceIndex = "SONIA"
	CD91D     ReferenceIndex = "CD91D"
)

// IsOvernight reports whether the reference rate is an overnight index.
func IsOvernight(r ReferenceIndex) bool {
	switch r {
	case ESTR, TONAR, SOFR, SONIA:
		return true
	default:
		return false
	}
}

// DayCount names an accrual convention understood by utils.YearFraction.
type DayCount string

const (
	Act360  DayCount = "ACT/360"
	Act365  DayCount = "ACT/365"
	Act365F DayCount = "ACT/365F"
	ActAct  DayCount = "ACT/ACT"
	Dc30360 DayCount = "30/360"
)

// DefaultDayCount returns the money-market convention for an index.
func DefaultDayCount(r ReferenceIndex) DayCount {
	switch r {
	case SONIA, CD91D:
		return Act365F
	default:
		return Act360
	}
}
