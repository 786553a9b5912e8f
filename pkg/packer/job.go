package packer

import (
	"fmt"
	"sync"
)

// JobState enumerates the lifecycle of a pack job
type JobState int

const (
	// JobIdle means Start has not been called yet
	JobIdle JobState = iota
	// JobInProgress means the worker is packing
	JobInProgress
	// JobFinished means the worker completed; Err carries the outcome
	JobFinished
)

// JobStatus is a snapshot of the progress cell. Err is nil on success and
// meaningful only in the JobFinished state.
type JobStatus struct {
	State JobState
	Err   error
}

// PackJob runs one asynchronous pack per session: Start returns immediately
// and spawns a single worker; Status is a non-blocking, idempotent poll of
// the shared progress cell. Cancellation is not supported; the worker runs
// to completion.
type PackJob struct {
	packer *Packer

	mu      sync.Mutex
	status  JobStatus
	started bool
}

// NewPackJob creates a job around the given packer
func NewPackJob(packer *Packer) *PackJob {
	return &PackJob{packer: packer}
}

// Start launches the pack worker. A job can be started at most once; a
// second call fails without touching the running worker.
func (j *PackJob) Start(folder, destination string, config *Config) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return fmt.Errorf("pack job already started")
	}
	j.started = true
	j.status = JobStatus{State: JobInProgress}
	j.mu.Unlock()

	go j.run(folder, destination, config)
	return nil
}

// run executes the pack and publishes the outcome. A worker panic is
// recovered into the generic ErrPackWorkerFailed so observers never see a
// poisoned cell.
func (j *PackJob) run(folder, destination string, config *Config) {
	var err error
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrPackWorkerFailed, recovered)
		}
		j.mu.Lock()
		j.status = JobStatus{State: JobFinished, Err: err}
		j.mu.Unlock()
	}()

	err = j.packer.Pack(folder, destination, config)
}

// Status returns a snapshot of the progress cell without blocking beyond
// the cell mutex.
func (j *PackJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}
