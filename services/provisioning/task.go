package provisioning

import (
	"encoding/json"
	"time"

	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"

	"github.com/hibiken/asynq"
)

const maxFolderRetry = 5

type FolderPayload struct {
	TaskID string `json:"task_id"`
	Root   string `json:"root"`
	Title  string `json:"title"`
}

// NewProvisionFolderTask builds the retry job for a task whose folder could
// not be created. The task id doubles as the asynq id so one task has at most
// one pending retry.
func NewProvisionFolderTask(p FolderPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(taskname.StorageProvisionFolder, payload,
		asynq.MaxRetry(maxFolderRetry),
		asynq.Timeout(60*time.Second),
		asynq.TaskID("folder:"+p.TaskID),
		asynq.Queue(queue.QueueStorage))
}
