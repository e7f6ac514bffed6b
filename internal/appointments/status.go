package appointments

import (
	"fmt"
	"time"
)

// Category is the visual treatment of a status badge.
type Category string

const (
	CategoryApproved Category = "approved"
	CategoryPending  Category = "pending"
	CategoryCanceled Category = "canceled"
	CategoryRejected Category = "rejected"
	CategoryNoShow   Category = "no-show"
)

// Badge is the display form of a status.
type Badge struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

var statusBadges = map[Status]Badge{
	StatusApproved: {Label: "Confirmed", Category: CategoryApproved},
	StatusPending:  {Label: "Pending", Category: CategoryPending},
	StatusCanceled: {Label: "Canceled", Category: CategoryCanceled},
	StatusRejected: {Label: "Rejected", Category: CategoryRejected},
	StatusNoShow:   {Label: "No-show", Category: CategoryNoShow},
}

// Classify maps a status to its badge. An unknown status keeps its original
// string as the label, under the pending visual treatment; it is never
// silently rewritten to a known value.
func Classify(status Status) Badge {
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return Badge{Label: string(status), Category: CategoryPending}
}

// Criterion selects a stat-card drill-down subset.
type Criterion string

const (
	CriterionToday    Criterion = "today"
	CriterionTotal    Criterion = "total"
	CriterionApproved Criterion = "approved"
	CriterionPending  Criterion = "pending"
	CriterionCanceled Criterion = "canceled"
	CriterionRejected Criterion = "rejected"
)

// ParseCriterion validates a drill-down filter from the UI.
func ParseCriterion(s string) (Criterion, error) {
	switch Criterion(s) {
	case CriterionToday, CriterionTotal, CriterionApproved, CriterionPending,
		CriterionCanceled, CriterionRejected:
		return Criterion(s), nil
	}
	return "", fmt.Errorf("appointments: unknown filter criterion %q", s)
}

// FilterByCriterion selects appointments for a stat-card drill-down. It must
// be fed the full superset: "total" and "canceled" need the canceled items
// the calendar grid hides. "today" means approved appointments starting on
// now's local date; "total" is the identity; the rest match status exactly.
func FilterByCriterion(appts []*Appointment, c Criterion, now time.Time) []*Appointment {
	if c == CriterionTotal {
		return appts
	}

	out := make([]*Appointment, 0, len(appts))
	if c == CriterionToday {
		today := now.Format(localDateLayout)
		for _, a := range appts {
			if a.Status == StatusApproved && a.BookingStart.DateString() == today {
				out = append(out, a)
			}
		}
		return out
	}

	for _, a := range appts {
		if a.Status == Status(c) {
			out = append(out, a)
		}
	}
	return out
}
