package domain

import "time"

// StatusEvent announces a terminal status transition for one target.
type StatusEvent struct {
	ProjectID   string       `json:"project_id"`
	OwnerID     string       `json:"owner_id"`
	Platform    Platform     `json:"platform"`
	IntentID    string       `json:"intent_id"`
	Attempt     int          `json:"attempt"`
	Status      TargetStatus `json:"status"`
	ContentID   string       `json:"content_id,omitempty"`
	URL         string       `json:"url,omitempty"`
	ErrorKind   ErrorKind    `json:"error_kind,omitempty"`
	ErrorDetail string       `json:"error_detail,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
