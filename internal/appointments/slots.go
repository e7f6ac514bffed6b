package appointments

import "time"

// Period partitions a day for the slot picker.
type Period string

const (
	PeriodMorning   Period = "morning"   // before 12:00
	PeriodAfternoon Period = "afternoon" // 12:00–16:59
	PeriodEvening   Period = "evening"   // 17:00 onward
)

// GroupSlotsByPeriod splits available slot times into morning, afternoon and
// evening groups, preserving the backend's order within each group.
func GroupSlotsByPeriod(slots []LocalTime) map[Period][]LocalTime {
	groups := map[Period][]LocalTime{
		PeriodMorning:   {},
		PeriodAfternoon: {},
		PeriodEvening:   {},
	}
	for _, s := range slots {
		switch h := s.Hour(); {
		case h < 12:
			groups[PeriodMorning] = append(groups[PeriodMorning], s)
		case h < 17:
			groups[PeriodAfternoon] = append(groups[PeriodAfternoon], s)
		default:
			groups[PeriodEvening] = append(groups[PeriodEvening], s)
		}
	}
	return groups
}

// EndForService derives bookingEnd from a chosen start and the service's
// duration, which the backend stores in seconds.
func EndForService(start LocalTime, svc *Service) LocalTime {
	return NewLocalTime(start.Add(time.Duration(svc.Duration) * time.Second))
}
