package systems

import (
	"sync"
	"time"

	"github.com/spaghettifunk/imagedata/engine/containers"
	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/metrics"
)

// Dispatcher queues work for the interactive thread. Any goroutine may Post;
// only the interactive thread calls Drain, once per frame.
type Dispatcher struct {
	mu     sync.Mutex
	queue  *containers.RingQueue[func()]
	notify chan struct{}
	closed bool
}

func NewDispatcher(capacity int) *Dispatcher {
	if capacity < 1 {
		capacity = 1
	}
	return &Dispatcher{
		queue:  containers.NewRingQueue[func()](capacity),
		notify: make(chan struct{}, 1),
	}
}

// Post queues task. It never blocks; the queue grows as needed.
func (d *Dispatcher) Post(task func()) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return core.ErrShuttingDown
	}
	d.queue.Enqueue(task)
	depth := d.queue.Len()
	d.mu.Unlock()

	metrics.DispatcherQueueDepth.Set(float64(depth))
	select {
	case d.notify <- struct{}{}:
	default:
	}
	return nil
}

// Drain runs every task queued before the call, in order, and returns how
// many ran. Tasks posted while draining run on the next call.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	n := d.queue.Len()
	tasks := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		task, err := d.queue.Dequeue()
		if err != nil {
			break
		}
		tasks = append(tasks, task)
	}
	d.mu.Unlock()

	if len(tasks) == 0 {
		return 0
	}
	start := time.Now()
	for _, task := range tasks {
		task()
	}
	metrics.DispatcherDrainDuration.Observe(time.Since(start).Seconds())
	metrics.DispatcherQueueDepth.Set(float64(d.Len()))
	return len(tasks)
}

// Notify is signalled after a Post. Loops without a frame clock wait on it
// before draining.
func (d *Dispatcher) Notify() <-chan struct{} {
	return d.notify
}

func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Close rejects further posts. Queued tasks can still be drained.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
