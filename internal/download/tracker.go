package download

import (
	"sort"
	"sync"
	"time"
)

// JobState is the lifecycle position of a tracked download.
type JobState int

const (
	StatePending JobState = iota
	StateActive
	StateCompleted
	StateCancelled
	StateVanished
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateVanished:
		return "vanished"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Job is a tracked download and the chat message reporting on it.
type Job struct {
	GID      string
	Location Location
	State    JobState
	Added    time.Time
}

// Tracker maps GIDs to their status messages. A GID present in the tracker is
// still owned by exactly one poller; whoever removes it first owns the
// terminal message edit.
type Tracker struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Register starts tracking gid. It returns false if gid is already tracked.
func (t *Tracker) Register(gid string, loc Location) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.jobs[gid]; exists {
		return false
	}
	t.jobs[gid] = &Job{GID: gid, Location: loc, State: StatePending, Added: time.Now()}
	return true
}

// Lookup returns the status message of gid.
func (t *Tracker) Lookup(gid string) (Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[gid]
	if !ok {
		return Location{}, false
	}
	return job.Location, true
}

// Deregister removes gid and returns its status message. Only the first
// caller for a given registration sees ok == true.
func (t *Tracker) Deregister(gid string) (Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[gid]
	if !ok {
		return Location{}, false
	}
	delete(t.jobs, gid)
	return job.Location, true
}

// SetState updates the state of a tracked gid.
func (t *Tracker) SetState(gid string, state JobState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[gid]; ok {
		job.State = state
	}
}

// Get returns a copy of the job for gid.
func (t *Tracker) Get(gid string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[gid]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Len returns the number of tracked downloads.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// IDs returns the tracked GIDs in sorted order.
func (t *Tracker) IDs() []string {
	t.mu.Lock()
	ids := make([]string, 0, len(t.jobs))
	for id := range t.jobs {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	sort.Strings(ids)
	return ids
}
