package recurring

import (
	"fmt"
	"time"
)

// RecurringTask links a client deliverable to the template task whose
// assignment is copied onto every generated task.
type RecurringTask struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
	ClientID       string     `gorm:"column:client_id;uniqueIndex:idx_recurring_client_deliverable;not null" json:"client_id"`
	DeliverableID  string     `gorm:"column:deliverable_id;uniqueIndex:idx_recurring_client_deliverable;not null" json:"deliverable_id"`
	TemplateTaskID string     `gorm:"column:template_task_id" json:"template_task_id"`
	Active         bool       `gorm:"column:active;not null;index" json:"active"`
	NextRunDate    time.Time  `gorm:"column:next_run_date" json:"next_run_date"`
	LastRunDate    *time.Time `gorm:"column:last_run_date" json:"last_run_date,omitempty"`
}

func (RecurringTask) TableName() string {
	return "recurring_tasks"
}

// RecurringRun records that a recurring task was materialized for a period.
// The unique index is what makes the monthly run safe to repeat.
type RecurringRun struct {
	ID              string     `gorm:"column:id;primaryKey" json:"id"`
	RecurringTaskID string     `gorm:"column:recurring_task_id;uniqueIndex:idx_recurring_run_period;not null" json:"recurring_task_id"`
	Period          string     `gorm:"column:period;type:varchar(7);uniqueIndex:idx_recurring_run_period;not null" json:"period"`
	CreatedCount    int        `gorm:"column:created_count" json:"created_count"`
	StartedAt       time.Time  `gorm:"column:started_at" json:"started_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (RecurringRun) TableName() string {
	return "recurring_runs"
}

// Period formats a month as YYYY-MM.
func Period(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

const (
	ReasonNoPostingDays      = "no_posting_days"
	ReasonNoQuantity         = "no_quantity"
	ReasonComplete           = "complete"
	ReasonSlotsExhausted     = "slots_exhausted"
	ReasonAlreadyRun         = "already_run"
	ReasonMissingDeliverable = "deliverable_missing"
	ReasonMissingClient      = "client_missing"
	ReasonNotDue             = "not_due"
	ReasonError              = "error"
)

// Outcome is the per-deliverable report of a backfill or run.
type Outcome struct {
	DeliverableID   string   `json:"deliverable_id"`
	ClientID        string   `json:"client_id"`
	RecurringTaskID string   `json:"recurring_task_id,omitempty"`
	Expected        int      `json:"expected"`
	Existing        int      `json:"existing"`
	Created         int      `json:"created"`
	Skipped         bool     `json:"skipped"`
	Reason          string   `json:"reason,omitempty"`
	Titles          []string `json:"titles,omitempty"`
	FolderFailures  int      `json:"folder_failures,omitempty"`
}

func skipped(o Outcome, reason string) Outcome {
	o.Skipped = true
	o.Reason = reason
	return o
}
