package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueRenders carries document render jobs so a burst of exports
	// cannot starve the sweep jobs.
	QueueRenders = "renders"

	// TaskTypeDocumentRender renders one financial document to disk.
	TaskTypeDocumentRender = "document:render"
	// TaskTypeNightlySweep flips overdue invoices and expired proposals.
	TaskTypeNightlySweep = "billing:nightly_sweep"
)

// DocumentRenderPayload identifies the document and output format to render.
type DocumentRenderPayload struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Format string `json:"format"`
}

// NewDocumentRenderTask constructs an Asynq task for a render request.
func NewDocumentRenderTask(payload DocumentRenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDocumentRender, data), nil
}

// NewNightlySweepTask constructs the scheduled billing sweep task.
func NewNightlySweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNightlySweep, nil)
}
