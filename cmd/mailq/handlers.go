package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UniQw/mailq"
	"github.com/UniQw/mailq/job"
)

var errMissingField = errors.New("missing required field")

// newMux registers the reference handlers. They validate and log each
// payload; delivery, parsing and scanning belong to the embedding service.
func newMux(log mailq.Logger, c *mailq.Client, handlerTimeout time.Duration) *mailq.Mux {
	mux := mailq.NewMux()
	mux.Use(mailq.Logging(log), mailq.Tracing(), mailq.Metrics(), mailq.Timeout(handlerTimeout))

	h := handlers{log: log, client: c}
	mux.Handle(job.TypeProcessing, h.processing)
	mux.Handle(job.TypeSending, h.sending)
	mux.Handle(job.TypeAttachment, h.attachment)
	mux.Handle(job.TypeNotification, h.notification)
	mux.Handle(job.TypeCleanup, h.cleanup)
	return mux
}

type handlers struct {
	log    mailq.Logger
	client *mailq.Client
}

func (h handlers) processing(ctx context.Context, j *job.Job) error {
	var p job.ProcessingPayload
	if err := job.DecodePayload(j, &p); err != nil {
		return err
	}
	if p.MessageID == "" || p.MailboxID == "" {
		return fmt.Errorf("email_processing %s: %w: message_id, mailbox_id", j.ID, errMissingField)
	}
	h.log.Infof("processing message: id=%s mailbox=%s raw=%s", p.MessageID, p.MailboxID, p.RawPath)
	return mailq.SetResult(ctx, map[string]string{"message_id": p.MessageID, "mailbox_id": p.MailboxID})
}

func (h handlers) sending(ctx context.Context, j *job.Job) error {
	var p job.SendingPayload
	if err := job.DecodePayload(j, &p); err != nil {
		return err
	}
	if p.MessageID == "" || len(p.To) == 0 {
		return fmt.Errorf("email_sending %s: %w: message_id, to", j.ID, errMissingField)
	}
	h.log.Infof("sending message: id=%s from=%s rcpt=%d attempt=%d", p.MessageID, p.From, len(p.To), j.Attempts+1)
	return mailq.SetResult(ctx, map[string]any{"message_id": p.MessageID, "accepted": len(p.To)})
}

func (h handlers) attachment(_ context.Context, j *job.Job) error {
	var p job.AttachmentPayload
	if err := job.DecodePayload(j, &p); err != nil {
		return err
	}
	if p.AttachmentID == "" {
		return fmt.Errorf("attachment_processing %s: %w: attachment_id", j.ID, errMissingField)
	}
	h.log.Infof("scanning attachment: id=%s message=%s file=%q size=%d", p.AttachmentID, p.MessageID, p.Filename, p.Size)
	return nil
}

func (h handlers) notification(_ context.Context, j *job.Job) error {
	var p job.NotificationPayload
	if err := job.DecodePayload(j, &p); err != nil {
		return err
	}
	if p.AccountID == "" || p.Event == "" {
		return fmt.Errorf("notification %s: %w: account_id, event", j.ID, errMissingField)
	}
	h.log.Infof("notifying: account=%s event=%s", p.AccountID, p.Event)
	return nil
}

// cleanup runs store housekeeping for the "queue" task. Other tasks are
// logged only.
func (h handlers) cleanup(ctx context.Context, j *job.Job) error {
	var p job.CleanupPayload
	if err := job.DecodePayload(j, &p); err != nil {
		return err
	}
	switch p.Task {
	case "queue":
		n, err := h.client.Cleanup(ctx, p.OlderThan)
		if err != nil {
			return err
		}
		h.log.Infof("cleanup task: task=%s removed=%d", p.Task, n)
		return mailq.SetResult(ctx, map[string]int{"removed": n})
	case "attachments", "drafts":
		h.log.Infof("cleanup task: task=%s older_than=%s", p.Task, p.OlderThan)
		return nil
	default:
		return fmt.Errorf("cleanup %s: unknown task %q", j.ID, p.Task)
	}
}
