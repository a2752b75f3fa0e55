package taskname

const (
	// Recurring tasks
	RecurringRun      = "recurring:run"
	RecurringBackfill = "recurring:backfill"

	// Storage tasks
	StorageProvisionFolder = "storage:provision:folder"
)
