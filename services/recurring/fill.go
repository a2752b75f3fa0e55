package recurring

import (
	"context"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"gorm.io/gorm"
)

type fillInput struct {
	Client      *client.Client
	Deliverable *deliverable.MonthlyDeliverable
	Year        int
	Month       time.Month
	Recurring   *RecurringTask
	Assignment  task.Assignment
	DryRun      bool
}

// fill tops a deliverable month up to its quantity. It counts the month's
// existing tasks, resumes the generated slot list after them and creates the
// rest with continuing sequence numbers. Created rows are returned so the
// caller can provision folders after the transaction commits.
func (s *Service) fill(ctx context.Context, tx *gorm.DB, in fillInput) (Outcome, []*task.Task, error) {
	d := in.Deliverable
	out := Outcome{
		DeliverableID: d.ID,
		ClientID:      d.ClientID,
		Expected:      d.Quantity,
	}
	if in.Recurring != nil {
		out.RecurringTaskID = in.Recurring.ID
	}

	if len(d.PostingDays) == 0 {
		return skipped(out, ReasonNoPostingDays), nil, nil
	}
	if d.Quantity <= 0 {
		return skipped(out, ReasonNoQuantity), nil, nil
	}

	start, end := schedule.MonthBounds(in.Year, in.Month, s.loc)
	existing, err := s.tasks.WithTrx(tx).Find(ctx, &task.Task{DeliverableID: d.ID}, task.InMonth(start, end))
	if err != nil {
		return out, nil, err
	}
	out.Existing = len(existing)

	need := d.Quantity - len(existing)
	if need <= 0 {
		return skipped(out, ReasonComplete), nil, nil
	}

	slots := schedule.Generate(d.ScheduleParams(in.Year, in.Month, s.loc))
	resume := 0
	if len(existing) > 0 {
		lastDue := existing[len(existing)-1].DueDate
		onLastDate := 0
		for _, t := range existing {
			if schedule.SameDay(t.DueDate, lastDue, s.loc) {
				onLastDate++
			}
		}
		resume = schedule.ResumeIndex(slots, lastDue, onLastDate, len(existing), s.loc)
	}

	var recurringID *string
	if in.Recurring != nil {
		id := in.Recurring.ID
		recurringID = &id
	}

	seq := task.NextSequence(existing)
	var created []*task.Task
	for _, slot := range slots[resume:] {
		if len(created) == need {
			break
		}
		n := seq + len(created)
		t := &task.Task{
			ID:              s.node.Generate().String(),
			ClientID:        in.Client.ID,
			DeliverableID:   d.ID,
			RecurringTaskID: recurringID,
			Title:           taskname.Title(in.Client.CompanyName, slot.Date, d.Type, n),
			TaskType:        d.Type,
			Sequence:        n,
			SequenceKey:     task.SequenceKey(d.ID, slot.Date, s.loc, n),
			DueDate:         slot.Date.UTC(),
			Status:          task.StatusPending,
			FolderStatus:    task.FolderPending,
		}
		t.Assign(in.Assignment)
		created = append(created, t)
		out.Titles = append(out.Titles, t.Title)
	}
	out.Created = len(created)

	if len(created) < need {
		out.Reason = ReasonSlotsExhausted
	}
	if len(created) == 0 {
		out.Skipped = true
		return out, nil, nil
	}

	if !in.DryRun {
		if err := s.tasks.WithTrx(tx).BatchCreate(ctx, created); err != nil {
			return out, nil, err
		}
	}
	return out, created, nil
}
