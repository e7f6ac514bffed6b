package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestComputeWindowDay(t *testing.T) {
	w := ComputeWindow(time.Date(2025, time.March, 10, 14, 30, 0, 0, time.Local), GranularityDay)

	assert.Equal(t, date(2025, time.March, 10), w.Start)
	assert.Equal(t, time.Date(2025, time.March, 10, 23, 59, 59, int(999*time.Millisecond), time.Local), w.End)
}

func TestComputeWindowWeek(t *testing.T) {
	tests := []struct {
		name      string
		selected  time.Time
		wantStart time.Time
	}{
		{"monday stays put", date(2025, time.March, 10), date(2025, time.March, 10)},
		{"midweek goes back", date(2025, time.March, 13), date(2025, time.March, 10)},
		{"sunday belongs to previous monday", date(2025, time.March, 16), date(2025, time.March, 10)},
		{"week crossing month boundary", date(2025, time.April, 2), date(2025, time.March, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.selected, GranularityWeek)
			assert.Equal(t, time.Monday, w.Start.Weekday())
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, time.Sunday, w.End.Weekday())
			assert.Equal(t, tt.wantStart.AddDate(0, 0, 6).Add(24*time.Hour-time.Millisecond), w.End)
		})
	}
}

func TestComputeWindowMonth(t *testing.T) {
	tests := []struct {
		name     string
		selected time.Time
		lastDay  int
	}{
		{"january", date(2025, time.January, 15), 31},
		{"april", date(2025, time.April, 1), 30},
		{"february common year", date(2025, time.February, 28), 28},
		{"february leap year", date(2024, time.February, 5), 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(tt.selected, GranularityMonth)
			assert.Equal(t, 1, w.Start.Day())
			assert.Equal(t, tt.selected.Month(), w.Start.Month())
			assert.Equal(t, tt.lastDay, w.End.Day())
			assert.Equal(t, tt.selected.Month(), w.End.Month())
		})
	}
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(date(2025, time.March, 13))

	require.Equal(t, date(2025, time.March, 10), days[0])
	for i, d := range days {
		assert.Equal(t, days[0].AddDate(0, 0, i), d)
	}
	assert.Equal(t, time.Sunday, days[6].Weekday())
}

func TestNavigateDayAndWeek(t *testing.T) {
	sel := date(2025, time.March, 10)

	assert.Equal(t, date(2025, time.March, 11), Navigate(sel, GranularityDay, 1))
	assert.Equal(t, date(2025, time.March, 9), Navigate(sel, GranularityDay, -1))
	assert.Equal(t, date(2025, time.March, 17), Navigate(sel, GranularityWeek, 1))
	assert.Equal(t, date(2025, time.March, 3), Navigate(sel, GranularityWeek, -1))
}

func TestNavigateMonthClamps(t *testing.T) {
	tests := []struct {
		name      string
		selected  time.Time
		direction int
		want      time.Time
	}{
		{"jan 31 forward clamps to feb 28", date(2025, time.January, 31), 1, date(2025, time.February, 28)},
		{"jan 31 forward in leap year clamps to feb 29", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"mar 31 back clamps to feb", date(2025, time.March, 31), -1, date(2025, time.February, 28)},
		{"may 31 forward clamps to jun 30", date(2025, time.May, 31), 1, date(2025, time.June, 30)},
		{"mid-month unaffected", date(2025, time.January, 15), 1, date(2025, time.February, 15)},
		{"december wraps year", date(2025, time.December, 20), 1, date(2026, time.January, 20)},
		{"january wraps year back", date(2025, time.January, 20), -1, date(2024, time.December, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Navigate(tt.selected, GranularityMonth, tt.direction)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNavigateMonthNeverSkips(t *testing.T) {
	// Walking forward a year from the 31st must visit every month exactly once.
	sel := date(2025, time.January, 31)
	for i := 0; i < 12; i++ {
		next := Navigate(sel, GranularityMonth, 1)
		wantMonth := time.Month((int(sel.Month()) % 12) + 1)
		require.Equal(t, wantMonth, next.Month(), "from %s", sel)
		sel = next
	}
}

func TestWindowContains(t *testing.T) {
	w := ComputeWindow(date(2025, time.March, 10), GranularityWeek)

	assert.True(t, w.Contains(time.Date(2025, time.March, 16, 23, 59, 59, 0, time.Local)))
	assert.False(t, w.Contains(date(2025, time.March, 17)))
	assert.False(t, w.Contains(date(2025, time.March, 9)))
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("week")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeek, g)

	_, err = ParseGranularity("fortnight")
	assert.Error(t, err)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2025, time.January))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 30, DaysInMonth(2025, time.November))
}
