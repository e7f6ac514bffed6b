package appointments

import (
	"strings"
	"time"
)

// Grid geometry constants. These are part of the rendering contract: the hour
// rows are sized so one minute is 2.33px, and a block is never shorter than
// 110px so short appointments stay legible (a 47-minute floor).
const (
	PixelsPerMinute  = 2.33
	MinBlockHeightPx = 110.0
)

// Default hour rows rendered by the day and week grids, 07:00 through 20:00.
const (
	DefaultGridHourStart = 7
	DefaultGridHourEnd   = 20
)

// Layout is the absolute-position geometry of one appointment block inside
// its start-hour row.
type Layout struct {
	TopOffsetPx float64 `json:"topOffsetPx"`
	HeightPx    float64 `json:"heightPx"`
}

// ComputeLayout positions an appointment inside its hour row. The top offset
// is the start minute within the hour; the height is the full duration,
// clamped to the minimum. A multi-hour block simply extends past its row.
func ComputeLayout(a *Appointment) Layout {
	minutes := a.Duration().Minutes()
	height := minutes * PixelsPerMinute
	if height < MinBlockHeightPx {
		height = MinBlockHeightPx
	}
	return Layout{
		TopOffsetPx: float64(a.BookingStart.Minute()) * PixelsPerMinute,
		HeightPx:    height,
	}
}

// HourRange returns the inclusive sequence [start, end].
func HourRange(start, end int) []int {
	if end < start {
		return nil
	}
	hours := make([]int, 0, end-start+1)
	for h := start; h <= end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// BucketByHour groups the appointments of one day into hour rows. An
// appointment lands in exactly one bucket, keyed by its start hour; spanning
// later rows is the layout's job, not the bucketing's. Order within a bucket
// is the order the gateway returned, concurrent blocks stack by absolute
// positioning rather than being resorted.
//
// Any malformed appointment aborts the whole bucketing.
func BucketByHour(appts []*Appointment, day time.Time, hours []int) (map[int][]*Appointment, error) {
	inRange := make(map[int]bool, len(hours))
	for _, h := range hours {
		inRange[h] = true
	}

	dayStr := day.Format(localDateLayout)
	buckets := make(map[int][]*Appointment)
	for _, a := range appts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if a.BookingStart.DateString() != dayStr {
			continue
		}
		hour := a.BookingStart.Hour()
		if !inRange[hour] {
			continue
		}
		buckets[hour] = append(buckets[hour], a)
	}
	return buckets, nil
}

// BucketByDay groups a month's appointments by day-of-month for the month
// grid, matching on the "YYYY-MM-" prefix of bookingStart.
func BucketByDay(appts []*Appointment, month time.Time) (map[int][]*Appointment, error) {
	prefix := month.Format("2006-01") + "-"
	buckets := make(map[int][]*Appointment)
	for _, a := range appts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(a.BookingStart.DateString(), prefix) {
			continue
		}
		day := a.BookingStart.Day()
		buckets[day] = append(buckets[day], a)
	}
	return buckets, nil
}
