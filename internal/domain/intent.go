package domain

import "time"

type IntentState string

const (
	IntentPending   IntentState = "pending"
	IntentEmitted   IntentState = "emitted"
	IntentClaimed   IntentState = "claimed"
	IntentDone      IntentState = "done"
	IntentCancelled IntentState = "cancelled"
)

// Terminal reports whether the state ends the intent lifecycle.
func (s IntentState) Terminal() bool {
	return s == IntentDone || s == IntentCancelled
}

// PublishIntent is a request to publish one project to one platform at DueAt.
type PublishIntent struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"project_id"`
	OwnerID   string      `json:"owner_id"`
	Platform  Platform    `json:"platform"`
	DueAt     time.Time   `json:"due_at"`
	Seq       int64       `json:"seq"`
	State     IntentState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PairKey identifies the (project, platform) pair an intent publishes to.
type PairKey struct {
	ProjectID string
	Platform  Platform
}

func (i *PublishIntent) Pair() PairKey {
	return PairKey{ProjectID: i.ProjectID, Platform: i.Platform}
}
