package metadata

/** @brief Describes a type of job */
type JobType int

const (
	/**
	 * @brief A general job that does not have any specific thread requirements.
	 */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job: read bytes, decode, analyse, preview.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

func (t JobType) String() string {
	switch t {
	case JOB_TYPE_GENERAL:
		return "general"
	case JOB_TYPE_RESOURCE_LOAD:
		return "resource_load"
	default:
		return "unknown"
	}
}

/**
 * @brief Determines which job queue a job uses. The high-priority queue is always
 * exhausted first before processing the normal-priority queue, which must also
 * be exhausted before processing the low-priority queue.
 */
type JobPriority int

const (
	/** @brief The lowest-priority job, used for work that can wait, such as preloads. */
	JOB_PRIORITY_LOW JobPriority = iota
	/** @brief A normal-priority job, used for loads caused by rendering. */
	JOB_PRIORITY_NORMAL
	/** @brief The highest-priority job, used for explicit reloads of visible resources. */
	JOB_PRIORITY_HIGH
)

/** Definition for the background part of a job. */
type JobStart func(params interface{}) (interface{}, error)

/** Definition for completion of a job. */
type JobOnComplete func(result interface{})

/** Definition for failure of a job. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief The type of job. */
	JobType JobType
	/** @brief The priority of this job. Higher priority jobs run sooner. */
	Priority JobPriority
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked on a worker goroutine. Required. */
	OnStart JobStart
	/** @brief Invoked on the worker with the result of OnStart when it succeeded. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked on the worker when OnStart failed or panicked. Optional. */
	OnFailure JobOnFailure
}
