// Package api exposes scheduling, connection and status operations over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"crosspost/internal/domain"
	"crosspost/internal/service"
)

type Planner interface {
	Schedule(ctx context.Context, projectID, ownerID string, platform domain.Platform, dueAt time.Time) (domain.PublishIntent, error)
	ScheduleProject(ctx context.Context, project *domain.Project, dueAt time.Time) ([]domain.PublishIntent, error)
	Cancel(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
	Pending(ctx context.Context) []domain.PublishIntent
}

type Connections interface {
	Put(ctx context.Context, ownerID string, platform domain.Platform, cred domain.Credential, settings map[string]string) (*domain.Connection, error)
	Revoke(ctx context.Context, ownerID string, platform domain.Platform) error
	List(ctx context.Context, ownerID string) ([]domain.Connection, error)
}

type Projects interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
}

type Status interface {
	ProjectStatus(ctx context.Context, projectID string) (*service.ProjectReport, error)
	History(ctx context.Context, projectID string, platform domain.Platform) ([]domain.Attempt, error)
}

// Config for the HTTP API handler.
type Config struct {
	Planner     Planner
	Connections Connections
	Projects    Projects
	Status      Status
	Logger      *slog.Logger
}

type apiErrorBody struct {
	Code    string   `json:"code" example:"too_late"`
	Message string   `json:"message" example:"intent already handed to a worker"`
	Details []string `json:"details,omitempty"`
}

// apiError is the error envelope every handler failure is rendered with.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

func newAPIError(status int, code, message string) huma.StatusError {
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

type handler struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an HTTP handler exposing the crosspost API.
func New(cfg Config) http.Handler {
	h := &handler{cfg: cfg, logger: cfg.Logger.With("component", "api")}

	// Request validation failures are bad input, not unprocessable content.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		e := &apiError{status: status, Body: apiErrorBody{Code: codeForStatus(status), Message: msg}}
		for _, err := range errs {
			if err != nil {
				e.Body.Details = append(e.Body.Details, err.Error())
			}
		}
		return e
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	api := humachi.New(router, huma.DefaultConfig("Crosspost API", "1.0.0"))

	h.registerHealth(api)
	h.registerIntents(api)
	h.registerProjects(api)
	h.registerConnections(api)

	return router
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// handleError maps domain errors onto HTTP statuses.
func (h *handler) handleError(err error) huma.StatusError {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", msg)
	case errors.Is(err, domain.ErrTooLate):
		return newAPIError(http.StatusConflict, "too_late", msg)
	case errors.Is(err, domain.ErrAlreadyInFlight):
		return newAPIError(http.StatusConflict, "already_in_flight", msg)
	case errors.Is(err, domain.ErrNoConnection):
		return newAPIError(http.StatusUnprocessableEntity, "no_connection", msg)
	case errors.Is(err, domain.ErrInvalidInput):
		return newAPIError(http.StatusBadRequest, "bad_request", msg)
	default:
		h.logger.Error("request failed", "error", err)
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func dueAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (h *handler) registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func (h *handler) registerIntents(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "schedule-intent",
		Method:        http.MethodPost,
		Path:          "/intents",
		Summary:       "Schedule a publish of one project to one platform",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body ScheduleIntentRequest `json:"body"`
	}) (*struct {
		Body IntentResponse `json:"body"`
	}, error) {
		if input.Body.ProjectID == "" || input.Body.Platform == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "project_id and platform are required")
		}
		project, err := h.cfg.Projects.Get(ctx, input.Body.ProjectID)
		if err != nil {
			return nil, h.handleError(err)
		}
		platform := domain.Platform(strings.ToLower(input.Body.Platform))
		if !project.HasTarget(platform) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "platform is not a target of the project")
		}
		intent, err := h.cfg.Planner.Schedule(ctx, project.ID, project.OwnerID, platform, dueAt(input.Body.DueAt))
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body IntentResponse `json:"body"`
		}{Body: intentResponse(intent)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-intents",
		Method:      http.MethodGet,
		Path:        "/intents",
		Summary:     "List open intents in queue order",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body IntentListResponse `json:"body"`
	}, error) {
		return &struct {
			Body IntentListResponse `json:"body"`
		}{Body: intentList(h.cfg.Planner.Pending(ctx))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "cancel-intent",
		Method:        http.MethodDelete,
		Path:          "/intents/{id}",
		Summary:       "Cancel a pending intent",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := h.cfg.Planner.Cancel(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "reorder-intents",
		Method:        http.MethodPost,
		Path:          "/intents/reorder",
		Summary:       "Run the listed pending intents in the given order",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body ReorderRequest `json:"body"`
	}) (*struct{}, error) {
		if err := h.cfg.Planner.Reorder(ctx, input.Body.IDs); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})
}

func (h *handler) registerProjects(api huma.API) {
	type projectPath struct {
		ID string `path:"id"`
	}

	huma.Register(api, huma.Operation{
		OperationID:   "publish-project",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/publish",
		Summary:       "Schedule a publish of a project to every target",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string                 `path:"id"`
		Body *PublishProjectRequest `required:"false"`
	}) (*struct {
		Body IntentListResponse `json:"body"`
	}, error) {
		project, err := h.cfg.Projects.Get(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		var due time.Time
		if input.Body != nil {
			due = dueAt(input.Body.DueAt)
		}
		intents, err := h.cfg.Planner.ScheduleProject(ctx, project, due)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body IntentListResponse `json:"body"`
		}{Body: intentList(intents)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-status",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/status",
		Summary:     "Per-target and aggregate publish status",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body *service.ProjectReport `json:"body"`
	}, error) {
		report, err := h.cfg.Status.ProjectStatus(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body *service.ProjectReport `json:"body"`
		}{Body: report}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "target-history",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/targets/{platform}/history",
		Summary:     "Ledger entries for one target",
	}, func(ctx context.Context, input *struct {
		ID       string `path:"id"`
		Platform string `path:"platform"`
	}) (*struct {
		Body HistoryResponse `json:"body"`
	}, error) {
		entries, err := h.cfg.Status.History(ctx, input.ID, domain.Platform(input.Platform))
		if err != nil {
			return nil, h.handleError(err)
		}
		resp := HistoryResponse{Attempts: make([]AttemptResponse, 0, len(entries))}
		for _, e := range entries {
			resp.Attempts = append(resp.Attempts, attemptResponse(e))
		}
		return &struct {
			Body HistoryResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func (h *handler) registerConnections(api huma.API) {
	type connectionPath struct {
		Owner    string `path:"owner"`
		Platform string `path:"platform"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "put-connection",
		Method:      http.MethodPut,
		Path:        "/connections/{owner}/{platform}",
		Summary:     "Create or replace a platform connection",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Owner    string               `path:"owner"`
		Platform string               `path:"platform"`
		Body     PutConnectionRequest `json:"body"`
	}) (*struct {
		Body ConnectionResponse `json:"body"`
	}, error) {
		cred := domain.Credential{
			AccessToken:  input.Body.AccessToken,
			RefreshToken: input.Body.RefreshToken,
			TokenType:    input.Body.TokenType,
		}
		if input.Body.ExpiresAt != nil {
			cred.ExpiresAt = *input.Body.ExpiresAt
		}
		conn, err := h.cfg.Connections.Put(ctx, input.Owner, domain.Platform(input.Platform), cred, input.Body.Settings)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body ConnectionResponse `json:"body"`
		}{Body: connectionResponse(conn)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "revoke-connection",
		Method:        http.MethodDelete,
		Path:          "/connections/{owner}/{platform}",
		Summary:       "Revoke a platform connection",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *connectionPath) (*struct{}, error) {
		if err := h.cfg.Connections.Revoke(ctx, input.Owner, domain.Platform(input.Platform)); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-connections",
		Method:      http.MethodGet,
		Path:        "/connections/{owner}",
		Summary:     "List an owner's active connections",
	}, func(ctx context.Context, input *struct {
		Owner string `path:"owner"`
	}) (*struct {
		Body ConnectionListResponse `json:"body"`
	}, error) {
		conns, err := h.cfg.Connections.List(ctx, input.Owner)
		if err != nil {
			return nil, h.handleError(err)
		}
		resp := ConnectionListResponse{Connections: make([]ConnectionResponse, 0, len(conns))}
		for i := range conns {
			resp.Connections = append(resp.Connections, connectionResponse(&conns[i]))
		}
		return &struct {
			Body ConnectionListResponse `json:"body"`
		}{Body: resp}, nil
	})
}
