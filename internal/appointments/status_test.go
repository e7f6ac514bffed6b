package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status   Status
		label    string
		category Category
	}{
		{StatusApproved, "Confirmed", CategoryApproved},
		{StatusPending, "Pending", CategoryPending},
		{StatusCanceled, "Canceled", CategoryCanceled},
		{StatusRejected, "Rejected", CategoryRejected},
		{StatusNoShow, "No-show", CategoryNoShow},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := Classify(tt.status)
			assert.Equal(t, tt.label, b.Label)
			assert.Equal(t, tt.category, b.Category)
		})
	}
}

func TestClassifyUnknownKeepsOriginalString(t *testing.T) {
	b := Classify(Status("waitlisted"))

	assert.Equal(t, "waitlisted", b.Label, "unknown status never rewritten")
	assert.Equal(t, CategoryPending, b.Category, "unknown gets pending visual treatment")
}

func statusAppt(t *testing.T, id int64, start string, status Status) *Appointment {
	t.Helper()
	a := appt(t, id, start, start[:11]+"23:59:59")
	a.Status = status
	return a
}

func TestFilterByCriterionToday(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)
	all := []*Appointment{
		statusAppt(t, 1, "2025-03-10 09:00:00", StatusApproved),
		// Today but pending: the today card counts confirmed work only.
		statusAppt(t, 2, "2025-03-10 10:00:00", StatusPending),
		statusAppt(t, 3, "2025-03-11 09:00:00", StatusApproved),
	}

	got := FilterByCriterion(all, CriterionToday, now)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFilterByCriterionOverSuperset(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)
	superset := []*Appointment{
		statusAppt(t, 1, "2025-03-10 09:00:00", StatusApproved),
		statusAppt(t, 2, "2025-03-10 10:00:00", StatusCanceled),
		statusAppt(t, 3, "2025-03-11 09:00:00", StatusRejected),
		statusAppt(t, 4, "2025-03-12 09:00:00", StatusPending),
	}

	assert.Len(t, FilterByCriterion(superset, CriterionTotal, now), 4, "total is the identity")

	canceled := FilterByCriterion(superset, CriterionCanceled, now)
	require.Len(t, canceled, 1)
	assert.Equal(t, int64(2), canceled[0].ID, "canceled drill-down needs items the grid hides")

	rejected := FilterByCriterion(superset, CriterionRejected, now)
	require.Len(t, rejected, 1)
	assert.Equal(t, int64(3), rejected[0].ID)
}

func TestActiveSetExcludesCanceledOnly(t *testing.T) {
	superset := []*Appointment{
		statusAppt(t, 1, "2025-03-10 09:00:00", StatusApproved),
		statusAppt(t, 2, "2025-03-10 10:00:00", StatusCanceled),
		statusAppt(t, 3, "2025-03-11 09:00:00", StatusRejected),
	}

	active := ActiveSet(superset)

	require.Len(t, active, 2)
	for _, a := range active {
		assert.NotEqual(t, StatusCanceled, a.Status)
	}
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion("canceled")
	require.NoError(t, err)
	assert.Equal(t, CriterionCanceled, c)

	_, err = ParseCriterion("archived")
	assert.Error(t, err)
}
