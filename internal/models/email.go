package models

import "time"

type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusSent    JobStatus = "sent"
	StatusFailed  JobStatus = "failed"
)

// Message is a fully-rendered email ready for the outbound channel.
// The sender address is configured process-wide and is not part of the message.
type Message struct {
	To          []string     `json:"to"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	ReplyTo     string       `json:"reply_to,omitempty"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Job is one queued delivery request. The body is rendered at enqueue time,
// so the template context is never re-evaluated later.
type Job struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`

	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	LastError   string    `json:"last_error,omitempty"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the job is ready for a delivery attempt at now.
func (j *Job) Due(now time.Time) bool {
	if j.Status != StatusPending {
		return false
	}
	return j.ScheduledFor == nil || !j.ScheduledFor.After(now)
}
