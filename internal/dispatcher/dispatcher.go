package dispatcher

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rentmail/internal/db"
	"rentmail/internal/metrics"
	"rentmail/internal/models"
	"rentmail/internal/queue"
)

// Transport delivers one rendered message and returns its message ID.
type Transport interface {
	Send(ctx context.Context, msg models.Message) (string, error)
}

// OutcomeLog receives terminal delivery outcomes, fire-and-forget.
type OutcomeLog interface {
	RecordOutcome(ctx context.Context, o db.Outcome) error
}

// Dispatcher periodically moves due jobs toward a terminal state. Exactly
// one pass runs at a time; a tick that fires mid-pass is skipped, so a slow
// transport can never cause the same job to be sent twice.
type Dispatcher struct {
	queue     *queue.Queue
	transport Transport
	interval  time.Duration
	outcomes  OutcomeLog
	log       *zap.Logger

	running atomic.Bool
}

func New(q *queue.Queue, t Transport, interval time.Duration, outcomes OutcomeLog, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Dispatcher{
		queue:     q,
		transport: t,
		interval:  interval,
		outcomes:  outcomes,
		log:       logger,
	}
}

// Run blocks until ctx is cancelled, running one dispatch pass per tick.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("dispatcher started", zap.Duration("interval", d.interval))

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher shutting down")
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass over the due jobs. It returns immediately
// if another pass is still in progress.
func (d *Dispatcher) RunOnce(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		d.log.Debug("dispatch pass still in progress, skipping tick")
		return
	}
	defer d.running.Store(false)
	// The gauge must reflect the queue even when the pass is cut short.
	defer func() { metrics.QueueDepth.Set(float64(d.queue.Len())) }()

	metrics.DispatcherRuns.Inc()

	for _, job := range d.queue.ListDue(time.Now()) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.attempt(ctx, job)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, job models.Job) {
	msgID, err := d.transport.Send(ctx, job.Message)
	if err == nil {
		d.queue.MarkSent(job.ID)
		metrics.EmailsSent.Inc()

		d.log.Info("queued email sent",
			zap.String("job_id", job.ID),
			zap.Strings("to", job.Message.To),
			zap.String("message_id", msgID),
		)

		d.record(ctx, job, msgID, models.StatusSent, "")
		return
	}

	metrics.EmailFailures.Inc()

	attempts := d.queue.IncrementAttempt(job.ID, err.Error())
	if attempts == 0 {
		// Job was removed between the scan and this attempt.
		return
	}

	if attempts >= job.MaxAttempts {
		d.queue.MarkFailed(job.ID, err.Error())
		metrics.JobsFailed.Inc()

		d.log.Error("job exhausted retries",
			zap.String("job_id", job.ID),
			zap.Strings("to", job.Message.To),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)

		d.record(ctx, job, "", models.StatusFailed, err.Error())
		return
	}

	d.log.Warn("delivery attempt failed, will retry",
		zap.String("job_id", job.ID),
		zap.Strings("to", job.Message.To),
		zap.Int("attempts", attempts),
		zap.Int("max_attempts", job.MaxAttempts),
		zap.Error(err),
	)
}

func (d *Dispatcher) record(ctx context.Context, job models.Job, msgID string, status models.JobStatus, errMsg string) {
	if d.outcomes == nil {
		return
	}

	o := db.Outcome{
		MessageID: msgID,
		JobID:     job.ID,
		Recipient: strings.Join(job.Message.To, ", "),
		Subject:   job.Message.Subject,
		Status:    string(status),
		Error:     errMsg,
	}
	if err := d.outcomes.RecordOutcome(ctx, o); err != nil {
		d.log.Error("failed to record delivery outcome",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
}
