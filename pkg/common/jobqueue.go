package common

import "sync"

type Job func() error

// JobQueue runs jobs one by one in the background, in the order they were enqueued.
type JobQueue struct {
	jobsChannel chan Job
	waitGroup   sync.WaitGroup
	stopOnce    sync.Once
	logger      Logger
}

// NewJobQueue starts the worker. Enqueue blocks once `capacity` jobs are waiting.
func NewJobQueue(capacity int, logger Logger) *JobQueue {
	worker := &JobQueue{
		jobsChannel: make(chan Job, capacity),
		logger:      logger,
	}
	worker.waitGroup.Add(1)
	go worker.run()
	return worker
}

// Enqueue must not be called after Stop.
func (j *JobQueue) Enqueue(job Job) {
	j.jobsChannel <- job
}

// Stop waits until every job enqueued so far is processed, then stops the worker.
func (j *JobQueue) Stop() {
	j.stopOnce.Do(func() {
		close(j.jobsChannel)
	})
	j.waitGroup.Wait()
}

func (j *JobQueue) run() {
	defer j.waitGroup.Done()
	for job := range j.jobsChannel {
		if err := job(); err != nil {
			LogErrorf(j.logger, "failed to process a job: %v", err)
		}
	}
}
