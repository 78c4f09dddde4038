package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentmail/internal/models"
	"rentmail/internal/queue"
)

func testMessage(to string) models.Message {
	return models.Message{
		To:      []string{to},
		Subject: "test",
		HTML:    "<p>test</p>",
	}
}

func TestEnqueue_ReturnsUniqueIDs(t *testing.T) {
	q := queue.New()

	a := q.Enqueue(testMessage("a@example.com"), nil, 3)
	b := q.Enqueue(testMessage("b@example.com"), nil, 3)

	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	require.NotEqual(t, a, b)
}

func TestEnqueue_DefaultsMaxAttempts(t *testing.T) {
	q := queue.New()
	q.Enqueue(testMessage("a@example.com"), nil, 0)

	st := q.Status()
	require.Len(t, st.Jobs, 1)
	require.Equal(t, 3, st.Jobs[0].MaxAttempts)
	require.Equal(t, models.StatusPending, st.Jobs[0].Status)
}

func TestListDue_RespectsSchedule(t *testing.T) {
	q := queue.New()
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	q.Enqueue(testMessage("now@example.com"), nil, 3)
	q.Enqueue(testMessage("past@example.com"), &past, 3)
	futureID := q.Enqueue(testMessage("future@example.com"), &future, 3)

	due := q.ListDue(now)
	require.Len(t, due, 2)
	for _, job := range due {
		require.NotEqual(t, futureID, job.ID)
	}

	// After the scheduled time the job becomes due.
	due = q.ListDue(future.Add(time.Second))
	require.Len(t, due, 3)
}

func TestMarkSent_RemovesJob(t *testing.T) {
	q := queue.New()
	id := q.Enqueue(testMessage("a@example.com"), nil, 3)

	q.MarkSent(id)

	st := q.Status()
	require.Equal(t, 0, st.Total)
	require.Empty(t, st.Jobs)
}

func TestMarkFailed_KeepsJobInListing(t *testing.T) {
	q := queue.New()
	id := q.Enqueue(testMessage("a@example.com"), nil, 3)

	q.MarkFailed(id, "connection refused")

	st := q.Status()
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 0, st.Pending)
	require.Equal(t, models.StatusFailed, st.Jobs[0].Status)
	require.Equal(t, "connection refused", st.Jobs[0].LastError)

	// Terminal jobs are out of the dispatcher's reach.
	require.Empty(t, q.ListDue(time.Now()))
}

func TestIncrementAttempt_RecordsError(t *testing.T) {
	q := queue.New()
	id := q.Enqueue(testMessage("a@example.com"), nil, 3)

	require.Equal(t, 1, q.IncrementAttempt(id, "timeout"))
	require.Equal(t, 2, q.IncrementAttempt(id, "timeout again"))

	st := q.Status()
	require.Equal(t, 2, st.Jobs[0].Attempts)
	require.Equal(t, "timeout again", st.Jobs[0].LastError)
}

func TestMutators_IdempotentOnMissingJob(t *testing.T) {
	q := queue.New()

	require.NotPanics(t, func() {
		q.MarkSent("job-gone")
		q.MarkFailed("job-gone", "err")
	})
	require.Equal(t, 0, q.IncrementAttempt("job-gone", "err"))
}

func TestClearFailed_RemovesAllAndOnlyFailed(t *testing.T) {
	q := queue.New()
	pending := q.Enqueue(testMessage("pending@example.com"), nil, 3)
	failedA := q.Enqueue(testMessage("a@example.com"), nil, 3)
	failedB := q.Enqueue(testMessage("b@example.com"), nil, 3)
	q.MarkFailed(failedA, "err")
	q.MarkFailed(failedB, "err")

	require.Equal(t, 2, q.ClearFailed())

	st := q.Status()
	require.Equal(t, 0, st.Failed)
	require.Equal(t, 1, st.Pending)
	require.Equal(t, pending, st.Jobs[0].ID)

	// Nothing left to clear.
	require.Equal(t, 0, q.ClearFailed())
}

func TestStatus_CountsAndOrdering(t *testing.T) {
	q := queue.New()
	q.Enqueue(testMessage("a@example.com"), nil, 3)
	failed := q.Enqueue(testMessage("b@example.com"), nil, 3)
	q.MarkFailed(failed, "err")

	st := q.Status()
	require.Equal(t, 1, st.Pending)
	require.Equal(t, 1, st.Failed)
	require.Equal(t, 2, st.Total)
	require.Len(t, st.Jobs, 2)
	require.False(t, st.Jobs[1].CreatedAt.Before(st.Jobs[0].CreatedAt))
}
