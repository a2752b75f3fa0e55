package schedule

import "time"

// ResumeIndex finds where generation continues when existing tasks already
// cover part of the month. lastDue is the due date of the latest existing task
// and onLastDate the number of existing tasks on that same day. When lastDue is
// not one of the slot days (the deliverable was reconfigured) generation resumes
// after the first existing slots.
func ResumeIndex(slots []Slot, lastDue time.Time, onLastDate, existing int, loc *time.Location) int {
	if existing <= 0 || len(slots) == 0 {
		return 0
	}
	for i, s := range slots {
		if SameDay(s.Date, lastDue, loc) {
			return clamp(i+onLastDate, len(slots))
		}
	}
	return clamp(existing, len(slots))
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
