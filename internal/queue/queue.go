package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentmail/internal/models"
)

// Queue holds pending and terminally-failed jobs in memory. Jobs do not
// survive a restart; durable queuing is deliberately out of scope.
//
// Enqueue is called from arbitrary caller goroutines while the dispatcher
// scans and mutates, so every access goes through the mutex.
type Queue struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

// Status is a point-in-time snapshot of the queue.
type Status struct {
	Pending int          `json:"pending"`
	Failed  int          `json:"failed"`
	Total   int          `json:"total"`
	Jobs    []models.Job `json:"jobs"`
}

func New() *Queue {
	return &Queue{jobs: make(map[string]*models.Job)}
}

// Enqueue accepts a rendered message for deferred delivery and returns the
// job ID. It never attempts delivery itself.
func (q *Queue) Enqueue(msg models.Message, scheduledFor *time.Time, maxAttempts int) string {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	now := time.Now()
	job := &models.Job{
		ID:           newJobID(now),
		Message:      msg,
		Status:       models.StatusPending,
		MaxAttempts:  maxAttempts,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.mu.Unlock()

	return job.ID
}

// ListDue returns snapshots of pending jobs whose scheduled time is unset
// or has passed. The dispatcher works from these copies and reports back
// through the mutators below.
func (q *Queue) ListDue(now time.Time) []models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []models.Job
	for _, job := range q.jobs {
		if job.Due(now) {
			due = append(due, *job)
		}
	}
	return due
}

// MarkSent removes the job; sent is terminal and sent jobs are not listed.
// No-op if the job no longer exists.
func (q *Queue) MarkSent(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.jobs, id)
}

// MarkFailed moves the job to its terminal failed state. The job stays in
// the status listing until ClearFailed removes it. No-op if the job no
// longer exists.
func (q *Queue) MarkFailed(id string, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return
	}
	job.Status = models.StatusFailed
	job.LastError = errMsg
	job.UpdatedAt = time.Now()
}

// IncrementAttempt records one failed attempt and returns the new attempt
// count. Returns 0 if the job no longer exists.
func (q *Queue) IncrementAttempt(id string, errMsg string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return 0
	}
	job.Attempts++
	job.LastError = errMsg
	job.UpdatedAt = time.Now()
	return job.Attempts
}

func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := Status{Jobs: make([]models.Job, 0, len(q.jobs))}
	for _, job := range q.jobs {
		switch job.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusFailed:
			st.Failed++
		}
		st.Jobs = append(st.Jobs, *job)
	}
	st.Total = len(q.jobs)

	sort.Slice(st.Jobs, func(i, j int) bool {
		return st.Jobs[i].CreatedAt.Before(st.Jobs[j].CreatedAt)
	})

	return st
}

// ClearFailed removes all failed jobs and returns how many were removed.
func (q *Queue) ClearFailed() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if job.Status == models.StatusFailed {
			delete(q.jobs, id)
			removed++
		}
	}
	return removed
}

// Len reports how many jobs the queue currently holds.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Job IDs are unique per process; enqueue-time nanos plus a random suffix.
func newJobID(now time.Time) string {
	return fmt.Sprintf("job-%d-%s", now.UnixNano(), uuid.NewString()[:8])
}
