package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return openBudgetLedger(t, 0)
}

func openBudgetLedger(t *testing.T, limit time.Duration) *Ledger {
	t.Helper()
	l, err := Open("", limit)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.Local)
}

func TestRecordAccumulates(t *testing.T) {
	l := openTestLedger(t)

	_, _, err := l.Record(Entry{Observation: models.Observation{Timestamp: at(3, 9), Tags: []string{}}, Span: 20 * time.Second})
	require.NoError(t, err)
	_, _, err = l.Record(Entry{Observation: models.Observation{Timestamp: at(3, 10), Tags: []string{"youtube"}}, Span: 20 * time.Second})
	require.NoError(t, err)
	day, crossing, err := l.Record(Entry{
		Observation: models.Observation{Timestamp: at(3, 11), Tags: []string{"reddit", "social"}},
		Span:        20 * time.Second,
		Alerted:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-03", day.Date)
	assert.Equal(t, 3, day.ObservationCount)
	assert.Equal(t, 2, day.DistractedCount)
	assert.EqualValues(t, 40, day.DistractionSeconds)
	assert.Equal(t, 1, day.AlertCount)
	assert.Equal(t, "reddit, social", day.LastDistraction)
	assert.Equal(t, CrossingNone, crossing)
	assert.Zero(t, day.LimitSeconds)

	stored, err := l.Day("2025-03-03")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, day.DistractionSeconds, stored.DistractionSeconds)
}

func TestDayMissing(t *testing.T) {
	l := openTestLedger(t)
	day, err := l.Day("1999-01-01")
	require.NoError(t, err)
	assert.Nil(t, day)
}

func TestDaysRange(t *testing.T) {
	l := openTestLedger(t)
	for _, d := range []int{1, 2, 3, 5} {
		_, _, err := l.Record(Entry{Observation: models.Observation{Timestamp: at(d, 12)}})
		require.NoError(t, err)
	}

	days, err := l.Days("2025-03-02", "2025-03-04")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-02", days[0].Date)
	assert.Equal(t, "2025-03-03", days[1].Date)
}

func TestToday(t *testing.T) {
	l := openTestLedger(t)
	l.now = func() time.Time { return at(7, 15) }

	_, _, err := l.Record(Entry{Observation: models.Observation{Timestamp: at(7, 14), Tags: []string{"youtube"}}, Span: time.Minute})
	require.NoError(t, err)

	today, err := l.Today()
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.EqualValues(t, 60, today.DistractionSeconds)
}

func distractedAt(day, hour, minute int) Entry {
	return Entry{
		Observation: models.Observation{
			Timestamp: time.Date(2025, time.March, day, hour, minute, 0, 0, time.Local),
			Tags:      []string{"youtube"},
		},
		Span: time.Minute,
	}
}

func TestBudgetCrossingsFireOncePerDay(t *testing.T) {
	l := openBudgetLedger(t, 10*time.Minute)

	var crossings []Crossing
	var last *models.FocusDay
	for m := 0; m < 12; m++ {
		day, c, err := l.Record(distractedAt(3, 9, m))
		require.NoError(t, err)
		crossings = append(crossings, c)
		last = day
	}

	// Eight of ten minutes is exactly 80% and does not warn; the ninth does.
	for i, c := range crossings {
		switch i {
		case 8:
			assert.Equal(t, CrossingWarning, c, "record %d", i)
		case 9:
			assert.Equal(t, CrossingLimit, c, "record %d", i)
		default:
			assert.Equal(t, CrossingNone, c, "record %d", i)
		}
	}

	assert.EqualValues(t, 600, last.LimitSeconds)
	assert.Zero(t, last.RemainingSeconds)
	assert.Equal(t, 100.0, last.PercentUsed)
	assert.True(t, last.BudgetWarned)
	assert.True(t, last.BudgetSpent)

	// A new day starts with a fresh budget.
	day, c, err := l.Record(distractedAt(4, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, CrossingNone, c)
	assert.EqualValues(t, 540, day.RemainingSeconds)
	assert.InDelta(t, 10.0, day.PercentUsed, 1e-9)
	assert.False(t, day.BudgetWarned)
}

func TestBudgetLimitWithoutPriorWarning(t *testing.T) {
	l := openBudgetLedger(t, 2*time.Minute)

	entry := distractedAt(3, 9, 0)
	entry.Span = 5 * time.Minute
	day, c, err := l.Record(entry)
	require.NoError(t, err)
	assert.Equal(t, CrossingLimit, c)
	assert.True(t, day.BudgetWarned)

	_, c, err = l.Record(distractedAt(3, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, CrossingNone, c)

	stored, err := l.Day("2025-03-03")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.BudgetSpent)
	assert.EqualValues(t, 120, stored.LimitSeconds)
}

func TestBudgetDisabled(t *testing.T) {
	l := openTestLedger(t)
	entry := distractedAt(3, 9, 0)
	entry.Span = 24 * time.Hour
	day, c, err := l.Record(entry)
	require.NoError(t, err)
	assert.Equal(t, CrossingNone, c)
	assert.False(t, day.BudgetSpent)
	assert.Zero(t, day.PercentUsed)
}
