package crawler

// Frontier is the bounded FIFO queue of not-yet-fetched tasks. FIFO keeps
// the traversal breadth-first, so MaxDepth acts as an even breadth bound
// rather than biasing one branch.
//
// Frontier is not safe for concurrent use; the engine mutates it from a
// single owner goroutine.
type Frontier struct {
	queue    []CrawlTask
	admitted int
	limits   Limits
}

// NewFrontier creates an empty frontier enforcing the given limits.
func NewFrontier(limits Limits) *Frontier {
	return &Frontier{limits: limits}
}

// Push admits a task unless its depth exceeds MaxDepth or the admitted-count
// limit has been reached. Returns true iff the task was enqueued.
func (f *Frontier) Push(task CrawlTask) bool {
	if task.Depth > f.limits.MaxDepth {
		return false
	}
	if f.admitted >= f.limits.MaxURLs {
		return false
	}
	f.queue = append(f.queue, task)
	f.admitted++
	return true
}

// Pop removes and returns the oldest task. The second return is false when
// the frontier is empty.
func (f *Frontier) Pop() (CrawlTask, bool) {
	if len(f.queue) == 0 {
		return CrawlTask{}, false
	}
	task := f.queue[0]
	f.queue = f.queue[1:]
	return task, true
}

// Exhausted is true when no tasks remain, whether or not MaxURLs was reached.
func (f *Frontier) Exhausted() bool {
	return len(f.queue) == 0
}

// Full is true once the admitted-count limit has been reached; further
// pushes are rejected but queued tasks still drain.
func (f *Frontier) Full() bool {
	return f.admitted >= f.limits.MaxURLs
}

// Admitted returns the total number of tasks ever admitted.
func (f *Frontier) Admitted() int {
	return f.admitted
}
