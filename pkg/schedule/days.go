package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type PostingSchedule string

const (
	Weekly   PostingSchedule = "weekly"
	BiWeekly PostingSchedule = "bi-weekly"
	Monthly  PostingSchedule = "monthly"
	// Custom currently generates exactly like Weekly.
	Custom PostingSchedule = "custom"
)

func (s PostingSchedule) Valid() bool {
	switch s {
	case Weekly, BiWeekly, Monthly, Custom:
		return true
	default:
		return false
	}
}

func (s PostingSchedule) String() string {
	if s.Valid() {
		return string(s)
	}
	return ""
}

var weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ParseWeekday accepts full weekday names and prefixes of at least three
// letters, case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) < 3 {
		return 0, false
	}
	for i, w := range weekdays {
		if strings.HasPrefix(w, n) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

var ordinalPattern = regexp.MustCompile(`(?i)^(\d{1,2})(st|nd|rd|th)?$`)

// ParseOrdinal parses day-of-month labels such as "1st", "22nd" or "15".
func ParseOrdinal(label string) (int, bool) {
	m := ordinalPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// ParseClock parses an HH:MM posting time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid posting time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// ValidateDays reports the first entry that is neither a weekday nor an ordinal.
func ValidateDays(days []string) error {
	for _, d := range days {
		if _, ok := ParseWeekday(d); ok {
			continue
		}
		if _, ok := ParseOrdinal(d); ok {
			continue
		}
		return fmt.Errorf("invalid posting day %q", d)
	}
	return nil
}

func ValidateTimes(times []string) error {
	for _, t := range times {
		if _, _, err := ParseClock(t); err != nil {
			return err
		}
	}
	return nil
}
