package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue name for background jobs.
	QueueDefault = "default"
	// TaskStockPost posts the inventory effect of an approved purchase or
	// a paid sale.
	TaskStockPost = "stock:post"
	// TaskStockReverse backs out a posting after its document is annulled.
	TaskStockReverse = "stock:reverse"
	// TaskStockIntegrity scans for stock drift between the materials table
	// and the movement log.
	TaskStockIntegrity = "stock:integrity"
)

// Stock posting document types.
const (
	DocTypePurchase = "compra"
	DocTypeSale     = "venta"
)

// StockPostPayload identifies the document whose lines must be posted.
type StockPostPayload struct {
	DocType string `json:"doc_type"`
	DocID   int64  `json:"doc_id"`
}

// NewStockPostTask constructs the posting task. The task ID is derived
// from the document so re-enqueues of the same document collapse into
// one pending task.
func NewStockPostTask(payload StockPostPayload) (*asynq.Task, []asynq.Option, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TaskStockPost, payload.DocType, payload.DocID)),
		asynq.MaxRetry(10),
	}
	return asynq.NewTask(TaskStockPost, data), opts, nil
}

// NewStockReverseTask constructs the reversal task for an annulled
// document.
func NewStockReverseTask(payload StockPostPayload) (*asynq.Task, []asynq.Option, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TaskStockReverse, payload.DocType, payload.DocID)),
		asynq.MaxRetry(10),
	}
	return asynq.NewTask(TaskStockReverse, data), opts, nil
}

// NewStockIntegrityTask constructs the periodic integrity scan task.
func NewStockIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskStockIntegrity, nil)
}
