package collect

import (
	"runtime"

	"github.com/alitto/pond"
)

// newWorkerPool returns a bounded worker pool sized by workers (0
// means runtime.NumCPU()), used to parse RCS files in parallel
// (spec.md §5 "C5 may parallelize across files"). The queue capacity
// is 0, which makes the pool unbuffered: Submit blocks until a worker
// takes the task.
func newWorkerPool(workers int) *pond.WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return pond.New(workers, 0)
}
