package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"rentmail/internal/csvparser"
	"rentmail/internal/db"
	"rentmail/internal/dispatcher"
	"rentmail/internal/metrics"
	"rentmail/internal/models"
	"rentmail/internal/queue"
	"rentmail/internal/template"
)

// Transport is the outbound channel as the façade sees it.
type Transport interface {
	Send(ctx context.Context, msg models.Message) (string, error)
	Verify(ctx context.Context) error
}

// SendOptions describes one email as a business caller specifies it.
// Either Template+Context or HTML carries the body; with neither, the
// default layout wraps Context's "content" field.
type SendOptions struct {
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	Template    string
	Context     map[string]any
	HTML        string
	Text        string
	Attachments []models.Attachment
}

// Service is the single entry point for all business callers: immediate
// send, deferred send, status inspection and queue maintenance.
type Service struct {
	templates  *template.Store
	transport  Transport
	queue      *queue.Queue
	dispatcher *dispatcher.Dispatcher
	outcomes   dispatcher.OutcomeLog

	defaultMaxAttempts int
	log                *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	templates *template.Store,
	transport Transport,
	q *queue.Queue,
	dispatchInterval time.Duration,
	defaultMaxAttempts int,
	outcomes dispatcher.OutcomeLog,
	logger *zap.Logger,
) *Service {
	if defaultMaxAttempts <= 0 {
		defaultMaxAttempts = 3
	}

	return &Service{
		templates:          templates,
		transport:          transport,
		queue:              q,
		dispatcher:         dispatcher.New(q, transport, dispatchInterval, outcomes, logger),
		outcomes:           outcomes,
		defaultMaxAttempts: defaultMaxAttempts,
		log:                logger,
	}
}

// Start launches the background dispatch loop. Safe to call once; a second
// call while running is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	go func() {
		defer close(done)
		s.dispatcher.Run(ctx)
	}()
}

// Stop halts the dispatch loop and waits for an in-flight pass to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SendEmail renders and delivers one message synchronously. A transport
// failure is returned to the caller; no retry happens at this layer.
func (s *Service) SendEmail(ctx context.Context, opts SendOptions) (string, error) {
	msg := s.buildMessage(opts)

	msgID, err := s.transport.Send(ctx, msg)
	if err != nil {
		metrics.EmailFailures.Inc()
		s.recordOutcome(ctx, "", "", msg, models.StatusFailed, err.Error())
		return "", fmt.Errorf("email delivery failed: %w", err)
	}

	metrics.EmailsSent.Inc()
	s.log.Info("email sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("message_id", msgID),
	)
	s.recordOutcome(ctx, msgID, "", msg, models.StatusSent, "")

	return msgID, nil
}

// QueueEmail renders the body now and hands the message to the queue for
// the dispatcher. The returned job ID means "accepted", not "delivered";
// transport failures surface only through GetQueueStatus.
func (s *Service) QueueEmail(opts SendOptions, scheduledFor *time.Time, maxAttempts int) string {
	msg := s.buildMessage(opts)
	if maxAttempts <= 0 {
		maxAttempts = s.defaultMaxAttempts
	}

	id := s.queue.Enqueue(msg, scheduledFor, maxAttempts)
	metrics.EmailsQueued.Inc()
	metrics.QueueDepth.Set(float64(s.queue.Len()))

	s.log.Info("email queued",
		zap.String("job_id", id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Timep("scheduled_for", scheduledFor),
	)

	return id
}

// QueueBulk queues one message per recipient row in the CSV, merging each
// row's columns into the template context. Pacing across recipients is the
// outbound channel's rate limiter, not a per-row delay.
func (s *Service) QueueBulk(r io.Reader, opts SendOptions, scheduledFor *time.Time, maxAttempts int) ([]string, error) {
	recipients, err := csvparser.ParseRecipients(r, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient csv: %w", err)
	}

	ids := make([]string, 0, len(recipients))
	for _, rec := range recipients {
		rowOpts := opts
		rowOpts.To = []string{rec.Email}

		rowCtx := make(map[string]any, len(opts.Context)+len(rec.Fields))
		for k, v := range opts.Context {
			rowCtx[k] = v
		}
		for k, v := range rec.Fields {
			rowCtx[k] = v
		}
		rowOpts.Context = rowCtx

		ids = append(ids, s.QueueEmail(rowOpts, scheduledFor, maxAttempts))
	}

	return ids, nil
}

func (s *Service) GetQueueStatus() queue.Status {
	return s.queue.Status()
}

func (s *Service) ClearFailedJobs() int {
	removed := s.queue.ClearFailed()
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	if removed > 0 {
		s.log.Info("cleared failed jobs", zap.Int("removed", removed))
	}
	return removed
}

// TestConnection reports transport reachability as a boolean; the error
// detail goes to the log.
func (s *Service) TestConnection(ctx context.Context) bool {
	if err := s.transport.Verify(ctx); err != nil {
		s.log.Warn("transport connection check failed", zap.Error(err))
		return false
	}
	return true
}

// ProcessQueue runs one dispatch pass immediately, outside the tick cycle.
func (s *Service) ProcessQueue(ctx context.Context) {
	s.dispatcher.RunOnce(ctx)
}

func (s *Service) buildMessage(opts SendOptions) models.Message {
	return models.Message{
		To:          opts.To,
		Cc:          opts.Cc,
		Bcc:         opts.Bcc,
		ReplyTo:     opts.ReplyTo,
		Subject:     opts.Subject,
		HTML:        s.resolveBody(opts),
		Text:        opts.Text,
		Attachments: opts.Attachments,
	}
}

// Body resolution order: named template, caller-supplied HTML, default
// layout around the context's "content" field.
func (s *Service) resolveBody(opts SendOptions) string {
	if opts.Template != "" {
		return s.templates.Render(opts.Template, opts.Context)
	}
	if opts.HTML != "" {
		return opts.HTML
	}
	return s.templates.Render("", opts.Context)
}

func (s *Service) recordOutcome(ctx context.Context, msgID, jobID string, msg models.Message, status models.JobStatus, errMsg string) {
	if s.outcomes == nil {
		return
	}

	o := db.Outcome{
		MessageID: msgID,
		JobID:     jobID,
		Recipient: strings.Join(msg.To, ", "),
		Subject:   msg.Subject,
		Status:    string(status),
		Error:     errMsg,
	}
	if err := s.outcomes.RecordOutcome(ctx, o); err != nil {
		s.log.Error("failed to record delivery outcome", zap.Error(err))
	}
}
