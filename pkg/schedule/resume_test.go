package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func septemberSlots() []Slot {
	// Mon/Wed/Fri, two per day: 1,1,3,3,5,5,8,8,...
	return Generate(Params{
		Year: 2025, Month: time.September, Quantity: 12, VideosPerDay: 2,
		PostingSchedule: Weekly, PostingDays: []string{"Monday", "Wednesday", "Friday"},
		PostingTimes: []string{"10:00", "16:00"},
	})
}

func TestResumeIndexNoExisting(t *testing.T) {
	require.Equal(t, 0, ResumeIndex(septemberSlots(), time.Time{}, 0, 0, time.UTC))
}

func TestResumeIndexContinuesOnLastDate(t *testing.T) {
	slots := septemberSlots()
	lastDue := time.Date(2025, time.September, 3, 10, 0, 0, 0, time.UTC)

	// three tasks: two on the 1st, one on the 3rd
	require.Equal(t, 3, ResumeIndex(slots, lastDue, 1, 3, time.UTC))
	// four tasks: two on the 1st, two on the 3rd
	require.Equal(t, 4, ResumeIndex(slots, lastDue, 2, 4, time.UTC))
}

func TestResumeIndexTemplateOnFirstSlot(t *testing.T) {
	slots := septemberSlots()
	lastDue := time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, 1, ResumeIndex(slots, lastDue, 1, 1, time.UTC))
}

func TestResumeIndexDriftFallsBackToCount(t *testing.T) {
	slots := septemberSlots()
	lastDue := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC) // a Tuesday
	require.Equal(t, 5, ResumeIndex(slots, lastDue, 1, 5, time.UTC))
	require.Equal(t, len(slots), ResumeIndex(slots, lastDue, 1, 40, time.UTC))
}
