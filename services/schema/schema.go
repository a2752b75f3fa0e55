package schema

import (
	"github.com/SahilSagvekar/my-app-sub003/pkg/db"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/recurring"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("schema", fx.Invoke(AutoMigrate))

func Models() []any {
	return []any{
		&client.Client{},
		&deliverable.MonthlyDeliverable{},
		&task.Task{},
		&recurring.RecurringTask{},
		&recurring.RecurringRun{},
	}
}

func AutoMigrate(conn *gorm.DB) error {
	return db.Migrate(conn, Models()...)
}
