package booking

import "time"

// ComputeAvailability subtracts the wall-clock times of booked appointments
// from the schedule's slots for day's weekday. Matching is exact on "HH:MM";
// a booked time that is not a schedule slot removes nothing. worksThatDay is
// false when the schedule has no entry for the weekday.
func ComputeAvailability(schedule WeeklySchedule, day time.Time, booked []time.Time) (available, bookedSlots []string, total int, worksThatDay bool) {
	bookedSlots = make([]string, 0, len(booked))
	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		slot := b.Format(ClockLayout)
		bookedSlots = append(bookedSlots, slot)
		taken[slot] = true
	}

	slots, ok := schedule.Slots(WeekdayOf(day))
	if !ok {
		return []string{}, bookedSlots, 0, false
	}

	available = make([]string, 0, len(slots))
	for _, s := range slots {
		if !taken[s] {
			available = append(available, s)
		}
	}
	return available, bookedSlots, len(slots), true
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
