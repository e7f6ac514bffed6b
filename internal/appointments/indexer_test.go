package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocal(t *testing.T, s string) LocalTime {
	t.Helper()
	lt, err := ParseLocalTime(s)
	require.NoError(t, err)
	return lt
}

func appt(t *testing.T, id int64, start, end string) *Appointment {
	t.Helper()
	return &Appointment{
		ID:           id,
		BookingStart: mustLocal(t, start),
		BookingEnd:   mustLocal(t, end),
		Status:       StatusApproved,
		Customer:     &Customer{ID: 1, Name: "Maria Rossi"},
		Service:      &Service{ID: 1, Name: "Visita", Color: "#1A5367", Duration: 2700},
		Location:     &Location{ID: 1, Name: "Studio 1"},
	}
}

func TestComputeLayoutShortAppointmentClampsToMinimum(t *testing.T) {
	a := appt(t, 1, "2025-03-10 09:15:00", "2025-03-10 10:00:00")

	l := ComputeLayout(a)

	assert.InDelta(t, 34.95, l.TopOffsetPx, 0.001, "15 minutes past the hour")
	assert.InDelta(t, MinBlockHeightPx, l.HeightPx, 0.001, "45min*2.33=104.85 clamps to 110")
}

func TestComputeLayoutLongAppointment(t *testing.T) {
	a := appt(t, 1, "2025-03-10 09:00:00", "2025-03-10 11:00:00")

	l := ComputeLayout(a)

	assert.InDelta(t, 0, l.TopOffsetPx, 0.001)
	assert.InDelta(t, 120*PixelsPerMinute, l.HeightPx, 0.001)
}

func TestBucketByHourStartHourOnly(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	appts := []*Appointment{
		appt(t, 1, "2025-03-10 09:15:00", "2025-03-10 10:00:00"),
		// Spans three hour rows but must appear only in its start hour.
		appt(t, 2, "2025-03-10 09:30:00", "2025-03-10 12:00:00"),
		appt(t, 3, "2025-03-10 14:00:00", "2025-03-10 14:30:00"),
		// Different day, excluded.
		appt(t, 4, "2025-03-11 09:00:00", "2025-03-11 10:00:00"),
	}

	buckets, err := BucketByHour(appts, day, HourRange(DefaultGridHourStart, DefaultGridHourEnd))
	require.NoError(t, err)

	require.Len(t, buckets[9], 2)
	assert.Equal(t, int64(1), buckets[9][0].ID, "gateway order preserved")
	assert.Equal(t, int64(2), buckets[9][1].ID)
	require.Len(t, buckets[14], 1)
	assert.Empty(t, buckets[10], "multi-hour appointment not spread into later rows")
	assert.Empty(t, buckets[11])

	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	assert.Equal(t, 3, total, "each in-day appointment lands in exactly one bucket")
}

func TestBucketByHourOutsideRangeDropped(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	appts := []*Appointment{
		appt(t, 1, "2025-03-10 06:00:00", "2025-03-10 06:30:00"),
		appt(t, 2, "2025-03-10 21:00:00", "2025-03-10 21:30:00"),
	}

	buckets, err := BucketByHour(appts, day, HourRange(7, 20))
	require.NoError(t, err)
	assert.Empty(t, buckets)
}

func TestBucketByHourFailsLoudlyOnMalformed(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	broken := appt(t, 7, "2025-03-10 09:00:00", "2025-03-10 10:00:00")
	broken.Service = nil

	_, err := BucketByHour([]*Appointment{broken}, day, HourRange(7, 20))

	var malformed *MalformedAppointmentError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, int64(7), malformed.ID)
}

func TestBucketByDay(t *testing.T) {
	month := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local)
	appts := []*Appointment{
		appt(t, 1, "2025-03-10 09:00:00", "2025-03-10 10:00:00"),
		appt(t, 2, "2025-03-10 11:00:00", "2025-03-10 12:00:00"),
		appt(t, 3, "2025-03-21 09:00:00", "2025-03-21 10:00:00"),
		appt(t, 4, "2025-04-02 09:00:00", "2025-04-02 10:00:00"),
	}

	buckets, err := BucketByDay(appts, month)
	require.NoError(t, err)

	assert.Len(t, buckets[10], 2)
	assert.Len(t, buckets[21], 1)
	assert.NotContains(t, buckets, 2, "april appointment excluded by prefix match")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Appointment)
		reason string
	}{
		{"missing service", func(a *Appointment) { a.Service = nil }, "missing service"},
		{"colorless service", func(a *Appointment) { a.Service.Color = "" }, "service has no color"},
		{"missing customer", func(a *Appointment) { a.Customer = nil }, "missing customer"},
		{"missing location", func(a *Appointment) { a.Location = nil }, "missing location"},
		{"inverted range", func(a *Appointment) { a.BookingEnd = a.BookingStart }, "bookingEnd not after bookingStart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := appt(t, 1, "2025-03-10 09:00:00", "2025-03-10 10:00:00")
			tt.mutate(a)
			var malformed *MalformedAppointmentError
			require.ErrorAs(t, a.Validate(), &malformed)
			assert.Equal(t, tt.reason, malformed.Reason)
		})
	}

	t.Run("well-formed", func(t *testing.T) {
		assert.NoError(t, appt(t, 1, "2025-03-10 09:00:00", "2025-03-10 10:00:00").Validate())
	})
}

func TestLocalTimeRoundTrip(t *testing.T) {
	lt := mustLocal(t, "2025-03-10 09:15:00")

	data, err := lt.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10 09:15:00"`, string(data))

	var back LocalTime
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, back.Equal(lt.Time))
	assert.Equal(t, "2025-03-10", back.DateString())
}
