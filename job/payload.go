package job

import "time"

// ProcessingPayload references an inbound raw message to parse into a mailbox.
type ProcessingPayload struct {
	MessageID string `json:"message_id"`
	MailboxID string `json:"mailbox_id"`
	RawPath   string `json:"raw_path"`
}

// SendingPayload references an outbound message to deliver.
type SendingPayload struct {
	MessageID string   `json:"message_id"`
	AccountID string   `json:"account_id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject,omitempty"`
}

// AttachmentPayload references a stored attachment to scan.
type AttachmentPayload struct {
	AttachmentID string `json:"attachment_id"`
	MessageID    string `json:"message_id"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
}

// NotificationPayload is an event to fan out to an account's subscribers.
type NotificationPayload struct {
	AccountID string            `json:"account_id"`
	Event     string            `json:"event"`
	Data      map[string]string `json:"data,omitempty"`
}

// CleanupPayload names a housekeeping task and the age threshold it applies to.
type CleanupPayload struct {
	Task      string        `json:"task"`
	OlderThan time.Duration `json:"older_than"`
}
