package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
)

type JobSystem struct {
	numWorkers int
	// One queue per priority, indexed by metadata.JobPriority.
	queues [3]chan metadata.JobTask
	done chan struct{}
	// Guards closed. Submit holds it for reading across the send.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		done:       make(chan struct{}),
	}
	for i := range js.queues {
		js.queues[i] = make(chan metadata.JobTask, channelSize)
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				job, ok := js.next()
				if !ok {
					return
				}
				js.run(job)
			}
		}()
	}
}

// next picks the job of highest priority. After shutdown it keeps returning
// queued jobs until every queue is empty.
func (js *JobSystem) next() (metadata.JobTask, bool) {
	high := js.queues[metadata.JOB_PRIORITY_HIGH]
	normal := js.queues[metadata.JOB_PRIORITY_NORMAL]
	low := js.queues[metadata.JOB_PRIORITY_LOW]

	select {
	case job := <-high:
		return job, true
	default:
	}
	select {
	case job := <-high:
		return job, true
	case job := <-normal:
		return job, true
	default:
	}
	select {
	case job := <-high:
		return job, true
	case job := <-normal:
		return job, true
	case job := <-low:
		return job, true
	case <-js.done:
	}

	select {
	case job := <-high:
		return job, true
	case job := <-normal:
		return job, true
	case job := <-low:
		return job, true
	default:
		return metadata.JobTask{}, false
	}
}

func (js *JobSystem) run(job metadata.JobTask) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s job panicked: %v", job.JobType, r)
			core.LogError("%s", err)
			if job.OnFailure != nil {
				job.OnFailure(err)
			}
		}
	}()

	result, err := job.OnStart(job.InputParams)
	if err != nil {
		core.LogError("%s", err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete(result)
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run; Shutdown returns
 * once every worker has exited. Jobs accepted by Submit always run.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.done)
	js.mu.Unlock()
	js.wg.Wait()
	return nil
}

// AddWorkNonBlocking adds work to the pool and returns immediately. A job
// that cannot be queued reports the error through OnFailure.
func (js *JobSystem) AddWorkNonBlocking(jt metadata.JobTask) {
	go func() {
		if err := js.Submit(jt); err != nil && jt.OnFailure != nil {
			jt.OnFailure(err)
		}
	}()
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue of its priority is full.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	if jt.OnStart == nil {
		return fmt.Errorf("%s job has no entry point", jt.JobType)
	}
	priority := jt.Priority
	if priority < metadata.JOB_PRIORITY_LOW || priority > metadata.JOB_PRIORITY_HIGH {
		priority = metadata.JOB_PRIORITY_NORMAL
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return core.ErrShuttingDown
	}
	// Workers keep draining until done is closed, so a full queue frees up.
	js.queues[priority] <- jt
	return nil
}

func (js *JobSystem) NumWorkers() int {
	return js.numWorkers
}
