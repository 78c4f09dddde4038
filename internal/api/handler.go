package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"rentmail/internal/models"
	"rentmail/internal/service"
)

// Handler exposes the email service to HTTP callers. Business validation
// lives with the callers; this layer only translates requests.
type Handler struct {
	Svc *service.Service
	Log *zap.Logger
}

type sendRequest struct {
	To          []string            `json:"to"`
	Cc          []string            `json:"cc,omitempty"`
	Bcc         []string            `json:"bcc,omitempty"`
	ReplyTo     string              `json:"reply_to,omitempty"`
	Subject     string              `json:"subject"`
	Template    string              `json:"template,omitempty"`
	Context     map[string]any      `json:"context,omitempty"`
	HTML        string              `json:"html,omitempty"`
	Text        string              `json:"text,omitempty"`
	Attachments []attachmentRequest `json:"attachments,omitempty"`
}

// attachmentRequest carries file content as base64 so attachments survive the
// JSON transport.
type attachmentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

type queueRequest struct {
	sendRequest
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	MaxAttempts  int        `json:"max_attempts,omitempty"`
}

func (req *sendRequest) options() (service.SendOptions, error) {
	opts := service.SendOptions{
		To:       req.To,
		Cc:       req.Cc,
		Bcc:      req.Bcc,
		ReplyTo:  req.ReplyTo,
		Subject:  req.Subject,
		Template: req.Template,
		Context:  req.Context,
		HTML:     req.HTML,
		Text:     req.Text,
	}
	for _, a := range req.Attachments {
		content, err := base64.StdEncoding.DecodeString(a.Content)
		if err != nil {
			return service.SendOptions{}, fmt.Errorf("attachment %q: content is not valid base64: %w", a.Filename, err)
		}
		opts.Attachments = append(opts.Attachments, models.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     content,
		})
	}
	return opts, nil
}

func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.To) == 0 {
		http.Error(w, "at least one recipient is required", http.StatusBadRequest)
		return
	}

	opts, err := req.options()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msgID, err := h.Svc.SendEmail(r.Context(), opts)
	if err != nil {
		h.Log.Error("immediate send failed", zap.Strings("to", req.To), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message_id": msgID})
}

func (h *Handler) QueueEmail(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.To) == 0 {
		http.Error(w, "at least one recipient is required", http.StatusBadRequest)
		return
	}

	opts, err := req.options()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobID := h.Svc.QueueEmail(opts, req.ScheduledFor, req.MaxAttempts)

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID})
}

// QueueBulk takes a recipient CSV as the request body; template and subject
// come from query parameters.
func (h *Handler) QueueBulk(w http.ResponseWriter, r *http.Request) {
	opts := service.SendOptions{
		Subject:  r.URL.Query().Get("subject"),
		Template: r.URL.Query().Get("template"),
	}
	if opts.Subject == "" {
		http.Error(w, "subject query parameter is required", http.StatusBadRequest)
		return
	}

	jobIDs, err := h.Svc.QueueBulk(r.Body, opts, nil, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"queued":  len(jobIDs),
		"job_ids": jobIDs,
	})
}

func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Svc.GetQueueStatus())
}

func (h *Handler) ClearFailed(w http.ResponseWriter, r *http.Request) {
	removed := h.Svc.ClearFailedJobs()
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ok := h.Svc.TestConnection(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ok": ok})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
