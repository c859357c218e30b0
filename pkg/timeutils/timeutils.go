package timeutils

import "time"

// PeriodKind mirrors the quota periodicities a chatbot plan can carry.
type PeriodKind string

const (
	PeriodDaily      PeriodKind = "daily"
	PeriodMonthly    PeriodKind = "monthly"
	PeriodQuarterly  PeriodKind = "quarterly"
	PeriodSemiannual PeriodKind = "semiannual"
	PeriodYearly     PeriodKind = "yearly"
	PeriodInfinity   PeriodKind = "infinity"
)

// SamePeriodBucket reports whether a and b fall in the same calendar bucket
// for the given periodicity. Quarter index is (month-1)/3, half-year index
// is (month-1)/6. PeriodInfinity never rolls over.
func SamePeriodBucket(kind PeriodKind, a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	switch kind {
	case PeriodDaily:
		ay, am, ad := a.Date()
		by, bm, bd := b.Date()
		return ay == by && am == bm && ad == bd
	case PeriodMonthly:
		return a.Year() == b.Year() && a.Month() == b.Month()
	case PeriodQuarterly:
		return a.Year() == b.Year() && (int(a.Month())-1)/3 == (int(b.Month())-1)/3
	case PeriodSemiannual:
		return a.Year() == b.Year() && (int(a.Month())-1)/6 == (int(b.Month())-1)/6
	case PeriodYearly:
		return a.Year() == b.Year()
	default:
		return true
	}
}

// RolloverDue reports whether a counter with the given last reset time must
// be zeroed before use.
func RolloverDue(kind PeriodKind, lastReset, now time.Time) bool {
	if lastReset.IsZero() {
		return false
	}
	return !SamePeriodBucket(kind, lastReset, now)
}
