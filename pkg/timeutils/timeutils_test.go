package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestSamePeriodBucket_Daily(t *testing.T) {
	assert.True(t, SamePeriodBucket(PeriodDaily, date(2025, 1, 31), date(2025, 1, 31)))
	assert.False(t, SamePeriodBucket(PeriodDaily, date(2025, 1, 31), date(2025, 2, 1)))
}

func TestSamePeriodBucket_Monthly(t *testing.T) {
	assert.True(t, SamePeriodBucket(PeriodMonthly, date(2025, 1, 1), date(2025, 1, 31)))
	assert.False(t, SamePeriodBucket(PeriodMonthly, date(2025, 1, 31), date(2025, 2, 1)))
	assert.False(t, SamePeriodBucket(PeriodMonthly, date(2024, 2, 1), date(2025, 2, 1)))
}

func TestSamePeriodBucket_Quarterly(t *testing.T) {
	// Q1 = ene-mar, Q2 = abr-jun
	assert.True(t, SamePeriodBucket(PeriodQuarterly, date(2025, 1, 1), date(2025, 3, 31)))
	assert.False(t, SamePeriodBucket(PeriodQuarterly, date(2025, 3, 31), date(2025, 4, 1)))
}

func TestSamePeriodBucket_Semiannual(t *testing.T) {
	assert.True(t, SamePeriodBucket(PeriodSemiannual, date(2025, 1, 1), date(2025, 6, 30)))
	assert.False(t, SamePeriodBucket(PeriodSemiannual, date(2025, 6, 30), date(2025, 7, 1)))
}

func TestSamePeriodBucket_Infinity(t *testing.T) {
	assert.True(t, SamePeriodBucket(PeriodInfinity, date(2020, 1, 1), date(2030, 1, 1)))
}

func TestRolloverDue(t *testing.T) {
	assert.True(t, RolloverDue(PeriodMonthly, date(2025, 1, 31), date(2025, 2, 1)))
	assert.False(t, RolloverDue(PeriodMonthly, date(2025, 2, 1), date(2025, 2, 28)))
	assert.False(t, RolloverDue(PeriodMonthly, time.Time{}, date(2025, 2, 1)))
	assert.False(t, RolloverDue(PeriodInfinity, date(2020, 1, 1), date(2030, 1, 1)))
}
