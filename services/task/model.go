package task

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusReadyForQC   Status = "READY_FOR_QC"
	StatusQCInProgress Status = "QC_IN_PROGRESS"
	StatusCompleted    Status = "COMPLETED"
	StatusScheduled    Status = "SCHEDULED"
)

type FolderStatus string

const (
	FolderPending     FolderStatus = "pending"
	FolderProvisioned FolderStatus = "provisioned"
	FolderFailed      FolderStatus = "failed"
)

type Task struct {
	ID              string       `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt       time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"column:updated_at" json:"updated_at"`
	ClientID        string       `gorm:"column:client_id;index;not null" json:"client_id"`
	DeliverableID   string       `gorm:"column:deliverable_id;index:idx_tasks_deliverable_due" json:"deliverable_id,omitempty"`
	RecurringTaskID *string      `gorm:"column:recurring_task_id;index" json:"recurring_task_id,omitempty"`
	Title           string       `gorm:"column:title;not null" json:"title"`
	Description     string       `gorm:"column:description;type:text" json:"description,omitempty"`
	TaskType        string       `gorm:"column:task_type" json:"task_type"`
	Sequence        int          `gorm:"column:sequence" json:"sequence"`
	SequenceKey     *string      `gorm:"column:sequence_key;uniqueIndex:idx_tasks_sequence_key" json:"-"`
	DueDate         time.Time    `gorm:"column:due_date;index:idx_tasks_deliverable_due" json:"due_date"`
	Status          Status       `gorm:"column:status;type:varchar(20);default:'PENDING'" json:"status"`
	OutputFolderID  string       `gorm:"column:output_folder_id" json:"output_folder_id,omitempty"`
	FolderStatus    FolderStatus `gorm:"column:folder_status;type:varchar(20);default:'pending'" json:"folder_status"`
	AssignedTo      string       `gorm:"column:assigned_to;index" json:"assigned_to,omitempty"`
	QCSpecialist    string       `gorm:"column:qc_specialist" json:"qc_specialist,omitempty"`
	Scheduler       string       `gorm:"column:scheduler" json:"scheduler,omitempty"`
	Videographer    string       `gorm:"column:videographer" json:"videographer,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// SequenceKey identifies sequence n of a deliverable within the month of due,
// "{deliverableID}:{YYYY-MM}:{n}". Tasks without a deliverable have no key.
func SequenceKey(deliverableID string, due time.Time, loc *time.Location, n int) *string {
	if deliverableID == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	key := fmt.Sprintf("%s:%s:%d", deliverableID, due.In(loc).Format("2006-01"), n)
	return &key
}

// Assignment is the set of people a task is routed to.
type Assignment struct {
	AssignedTo   string `json:"assigned_to"`
	QCSpecialist string `json:"qc_specialist"`
	Scheduler    string `json:"scheduler"`
	Videographer string `json:"videographer"`
}

func (t *Task) Assignment() Assignment {
	return Assignment{
		AssignedTo:   t.AssignedTo,
		QCSpecialist: t.QCSpecialist,
		Scheduler:    t.Scheduler,
		Videographer: t.Videographer,
	}
}

func (t *Task) Assign(a Assignment) {
	t.AssignedTo = a.AssignedTo
	t.QCSpecialist = a.QCSpecialist
	t.Scheduler = a.Scheduler
	t.Videographer = a.Videographer
}
