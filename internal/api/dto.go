package api

import (
	"time"

	"crosspost/internal/domain"
)

// Request payloads

type ScheduleIntentRequest struct {
	ProjectID string     `json:"project_id,omitempty"`
	Platform  string     `json:"platform,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty" doc:"Omit to publish now"`
}

type PublishProjectRequest struct {
	DueAt *time.Time `json:"due_at,omitempty" doc:"Omit to publish now"`
}

type ReorderRequest struct {
	IDs []string `json:"ids,omitempty"`
}

type PutConnectionRequest struct {
	AccessToken  string            `json:"access_token,omitempty"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	TokenType    string            `json:"token_type,omitempty"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	Settings     map[string]string `json:"settings,omitempty"`
}

// Response payloads

type IntentResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	OwnerID   string    `json:"owner_id"`
	Platform  string    `json:"platform"`
	DueAt     time.Time `json:"due_at"`
	Seq       int64     `json:"seq"`
	State     string    `json:"state"`
}

type IntentListResponse struct {
	Intents []IntentResponse `json:"intents"`
}

// ConnectionResponse never carries tokens.
type ConnectionResponse struct {
	OwnerID   string            `json:"owner_id"`
	Platform  string            `json:"platform"`
	TokenType string            `json:"token_type,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
}

type AttemptResponse struct {
	Number      int       `json:"attempt"`
	Phase       string    `json:"phase"`
	Outcome     string    `json:"outcome"`
	ContentID   string    `json:"content_id,omitempty"`
	URL         string    `json:"url,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	RetryDelay  string    `json:"retry_delay,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type HistoryResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
}

func intentResponse(i domain.PublishIntent) IntentResponse {
	return IntentResponse{
		ID:        i.ID,
		ProjectID: i.ProjectID,
		OwnerID:   i.OwnerID,
		Platform:  string(i.Platform),
		DueAt:     i.DueAt,
		Seq:       i.Seq,
		State:     string(i.State),
	}
}

func intentList(intents []domain.PublishIntent) IntentListResponse {
	out := IntentListResponse{Intents: make([]IntentResponse, 0, len(intents))}
	for _, i := range intents {
		out.Intents = append(out.Intents, intentResponse(i))
	}
	return out
}

func connectionResponse(c *domain.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		OwnerID:   c.OwnerID,
		Platform:  string(c.Platform),
		TokenType: c.Credential.TokenType,
		Settings:  c.Settings,
		UpdatedAt: c.UpdatedAt,
	}
	if !c.Credential.ExpiresAt.IsZero() {
		at := c.Credential.ExpiresAt
		resp.ExpiresAt = &at
	}
	return resp
}

func attemptResponse(a domain.Attempt) AttemptResponse {
	resp := AttemptResponse{
		Number:     a.Number,
		Phase:      string(a.Phase),
		Outcome:    string(a.Outcome),
		RecordedAt: a.RecordedAt,
	}
	if a.ContentID != nil {
		resp.ContentID = *a.ContentID
	}
	if a.ContentURL != nil {
		resp.URL = *a.ContentURL
	}
	if a.ErrorKind != nil {
		resp.ErrorKind = string(*a.ErrorKind)
	}
	if a.ErrorDetail != nil {
		resp.ErrorDetail = *a.ErrorDetail
	}
	if a.RetryDelay > 0 {
		resp.RetryDelay = a.RetryDelay.String()
	}
	return resp
}
