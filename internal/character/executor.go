package character

import (
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Executor runs asset loads off the frame loop.
type Executor interface {
	Submit(job func())
}

// PoolExecutor runs jobs on a dynamic worker pool.
type PoolExecutor struct {
	pool worker.DynamicWorkerPool
	ids  atomic.Int64
}

// NewPoolExecutor creates a pool with up to workers concurrent loads.
func NewPoolExecutor(workers int) *PoolExecutor {
	if workers < 1 {
		workers = 1
	}
	return &PoolExecutor{pool: worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)}
}

// Submit queues job on the pool.
func (e *PoolExecutor) Submit(job func()) {
	e.pool.SubmitTask(worker.Task{
		ID: int(e.ids.Add(1)),
		Do: func() (any, error) {
			job()
			return nil, nil
		},
	})
}
