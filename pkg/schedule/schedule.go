// Package schedule turns a monthly deliverable configuration into the ordered
// list of posting slots for one calendar month.
package schedule

import (
	"sort"
	"time"
)

type Params struct {
	Year            int
	Month           time.Month
	Quantity        int
	VideosPerDay    int
	PostingSchedule PostingSchedule
	PostingDays     []string
	PostingTimes    []string
	Location        *time.Location
}

// Slot is one unit of deliverable output pinned to a date and time.
type Slot struct {
	Date time.Time
	// Day is the day of month the slot falls on.
	Day int
	// Index is the position of the slot within its day, starting at 0.
	Index int
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first instant of the month and of the following month.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Generate produces at most Quantity slots, in calendar order.
func Generate(p Params) []Slot {
	if p.Quantity <= 0 || len(p.PostingDays) == 0 {
		return nil
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	perDay := p.VideosPerDay
	if perDay < 1 {
		perDay = 1
	}

	days := postingDays(p)
	slots := make([]Slot, 0, p.Quantity)
	for _, day := range days {
		for i := 0; i < perDay; i++ {
			if len(slots) == p.Quantity {
				return slots
			}
			hour, minute := clockFor(p.PostingTimes, i)
			slots = append(slots, Slot{
				Date:  time.Date(p.Year, p.Month, day, hour, minute, 0, 0, loc),
				Day:   day,
				Index: i,
			})
		}
	}
	return slots
}

// Dates is Generate without the slot metadata.
func Dates(p Params) []time.Time {
	slots := Generate(p)
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Date
	}
	return out
}

func postingDays(p Params) []int {
	if p.PostingSchedule == Monthly {
		if days := ordinalDays(p.Year, p.Month, p.PostingDays); len(days) > 0 {
			return days
		}
	}
	return weekdayDays(p.Year, p.Month, p.PostingSchedule, p.PostingDays)
}

func ordinalDays(year int, month time.Month, labels []string) []int {
	limit := DaysIn(year, month)
	seen := make(map[int]bool)
	var days []int
	for _, l := range labels {
		day, ok := ParseOrdinal(l)
		if !ok || day > limit || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

func weekdayDays(year int, month time.Month, sched PostingSchedule, names []string) []int {
	targets := make(map[time.Weekday]bool)
	for _, n := range names {
		if wd, ok := ParseWeekday(n); ok {
			targets[wd] = true
		}
	}
	if len(targets) == 0 {
		return nil
	}

	var days []int
	for day := 1; day <= DaysIn(year, month); day++ {
		wd := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
		if !targets[wd] {
			continue
		}
		if sched == BiWeekly && ((day-1)/7)%2 != 0 {
			continue
		}
		days = append(days, day)
	}
	return days
}

// clockFor pads times by repeating the last entry; no times means midnight.
func clockFor(times []string, i int) (int, int) {
	if len(times) == 0 {
		return 0, 0
	}
	if i >= len(times) {
		i = len(times) - 1
	}
	hour, minute, err := ParseClock(times[i])
	if err != nil {
		return 0, 0
	}
	return hour, minute
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
