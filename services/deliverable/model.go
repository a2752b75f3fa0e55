package deliverable

import (
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"

	"gorm.io/datatypes"
)

type MonthlyDeliverable struct {
	ID              string                      `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt       time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at" json:"updated_at"`
	ClientID        string                      `gorm:"column:client_id;index;not null" json:"client_id"`
	Type            string                      `gorm:"column:type;not null" json:"type"`
	Quantity        int                         `gorm:"column:quantity" json:"quantity"`
	VideosPerDay    int                         `gorm:"column:videos_per_day;default:1" json:"videos_per_day"`
	PostingSchedule schedule.PostingSchedule    `gorm:"column:posting_schedule;type:varchar(20)" json:"posting_schedule"`
	PostingDays     datatypes.JSONSlice[string] `gorm:"column:posting_days" json:"posting_days"`
	PostingTimes    datatypes.JSONSlice[string] `gorm:"column:posting_times" json:"posting_times"`
}

func (MonthlyDeliverable) TableName() string {
	return "monthly_deliverables"
}

// ScheduleParams builds the generator input for one month.
func (d *MonthlyDeliverable) ScheduleParams(year int, month time.Month, loc *time.Location) schedule.Params {
	return schedule.Params{
		Year:            year,
		Month:           month,
		Quantity:        d.Quantity,
		VideosPerDay:    d.VideosPerDay,
		PostingSchedule: d.PostingSchedule,
		PostingDays:     d.PostingDays,
		PostingTimes:    d.PostingTimes,
		Location:        loc,
	}
}
